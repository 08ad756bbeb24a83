package request

// SignInRequest is the request body for signing in
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenRequest is the request body for exchanging an ID token
type TokenRequest struct {
	IDToken string `json:"idToken"`
}

// RevokeRequest is the request body for revoking a token
type RevokeRequest struct {
	Token string `json:"token"`
}

// CreateFolderRequest is the request body for creating a folder
type CreateFolderRequest struct {
	Name string `json:"name"`
}

// CreateFileRequest is the request body for creating a file.
// Content is base64 on the wire.
type CreateFileRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
	Content  []byte `json:"content"`
}

// UpdateFileRequest is the request body for replacing a file's content
type UpdateFileRequest struct {
	Content []byte `json:"content"`
}

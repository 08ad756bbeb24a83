// Package storetest holds behaviour tests shared by every remote.Store implementation.
package storetest

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/remote"
)

// Tokens accepted by stores under test
const (
	AliceToken = "tok-alice"
	BobToken   = "tok-bob"
)

// Tokens returns the authenticator stores under test should use
func Tokens() remote.StaticTokens {
	return remote.StaticTokens{
		AliceToken: "alice",
		BobToken:   "bob",
	}
}

// Suite exercises a remote.Store. Embedders set Store in SetupTest.
type Suite struct {
	suite.Suite
	Store remote.Store
	Ctx   context.Context
}

func (s *Suite) folder(token string) remote.FolderRef {
	folder, err := s.Store.CreateFolder(s.Ctx, token, "Banker Score Recording")
	s.Require().NoError(err)
	return folder
}

func (s *Suite) TestCreateAndReadFile() {
	folder := s.folder(AliceToken)
	s.True(folder.Folder)

	ref, err := s.Store.CreateFile(s.Ctx, AliceToken, "games-data.json", folder, []byte(`{"a":1}`))
	s.Require().NoError(err)
	s.NotEmpty(ref.ID)
	s.Equal("games-data.json", ref.Name)
	s.Equal(folder.ID, ref.ParentID)
	s.False(ref.Folder)
	s.Equal(int64(7), ref.Size)

	content, err := s.Store.GetFileContent(s.Ctx, AliceToken, ref)
	s.Require().NoError(err)
	s.Equal(`{"a":1}`, string(content))
}

func (s *Suite) TestFindByNameScopesToParent() {
	folder := s.folder(AliceToken)
	_, err := s.Store.CreateFile(s.Ctx, AliceToken, "games-data.json", folder, []byte("{}"))
	s.Require().NoError(err)
	_, err = s.Store.CreateFile(s.Ctx, AliceToken, "games-data.json", remote.FolderRef{}, []byte("{}"))
	s.Require().NoError(err)

	inFolder, err := s.Store.FindByName(s.Ctx, AliceToken, "games-data.json", folder.ID)
	s.Require().NoError(err)
	s.Len(inFolder, 1)

	folders, err := s.Store.FindByName(s.Ctx, AliceToken, "Banker Score Recording", "")
	s.Require().NoError(err)
	s.Require().Len(folders, 1)
	s.Equal(folder.ID, folders[0].ID)

	missing, err := s.Store.FindByName(s.Ctx, AliceToken, "other.json", folder.ID)
	s.Require().NoError(err)
	s.Empty(missing)
}

func (s *Suite) TestUpdateFile() {
	folder := s.folder(AliceToken)
	ref, err := s.Store.CreateFile(s.Ctx, AliceToken, "games-data.json", folder, []byte("v1"))
	s.Require().NoError(err)

	updated, err := s.Store.UpdateFile(s.Ctx, AliceToken, ref, []byte("version2"))
	s.Require().NoError(err)
	s.Equal(ref.ID, updated.ID)
	s.Equal(int64(8), updated.Size)

	content, err := s.Store.GetFileContent(s.Ctx, AliceToken, ref)
	s.Require().NoError(err)
	s.Equal("version2", string(content))
}

func (s *Suite) TestMissingFile() {
	_, err := s.Store.GetFileContent(s.Ctx, AliceToken, remote.FileRef{ID: "missing"})
	s.ErrorIs(err, model.ErrNotFound)

	_, err = s.Store.UpdateFile(s.Ctx, AliceToken, remote.FileRef{ID: "missing"}, []byte("x"))
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *Suite) TestAccountsAreIsolated() {
	folder := s.folder(AliceToken)
	ref, err := s.Store.CreateFile(s.Ctx, AliceToken, "games-data.json", folder, []byte("alice"))
	s.Require().NoError(err)

	found, err := s.Store.FindByName(s.Ctx, BobToken, "Banker Score Recording", "")
	s.Require().NoError(err)
	s.Empty(found)

	_, err = s.Store.GetFileContent(s.Ctx, BobToken, ref)
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *Suite) TestRejectsMissingOrInvalidToken() {
	_, err := s.Store.FindByName(s.Ctx, "", "games-data.json", "")
	s.ErrorIs(err, model.ErrAuthentication)

	_, err = s.Store.CreateFolder(s.Ctx, "expired", "Banker Score Recording")
	s.ErrorIs(err, model.ErrAuthentication)

	_, err = s.Store.GetFileContent(s.Ctx, "expired", remote.FileRef{ID: "x"})
	s.ErrorIs(err, model.ErrAuthentication)
}

func (s *Suite) TestRejectsEmptyName() {
	_, err := s.Store.CreateFolder(s.Ctx, AliceToken, " ")
	s.ErrorIs(err, model.ErrValidation)
}

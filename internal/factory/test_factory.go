package factory

import (
	"context"
	"time"

	"github.com/mcoot/bankerscore/internal/dependencies/mocks"
	"github.com/mcoot/bankerscore/internal/remote/memory"
	"github.com/mcoot/bankerscore/internal/services/accounts"
	"github.com/mcoot/bankerscore/internal/services/cloudsync"
	memorystorage "github.com/mcoot/bankerscore/internal/storage/memory"
	"github.com/mcoot/bankerscore/internal/testutil"
)

// Test account credentials registered by NewTestApp
const (
	TestUsername = "alice"
	TestPassword = "secret123"
)

// TestCloud is an in-process identity provider and remote store shared by test devices
type TestCloud struct {
	Accounts *accounts.Service
	Store    *memory.Store
}

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom

	Cloud *TestCloud
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and an in-memory cloud holding one account
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	logger := testutil.NopLogger()

	accts, err := accounts.New(mockClock, accounts.Config{Secret: []byte("integration-test-secret")}, logger)
	if err != nil {
		panic(err)
	}
	if err := accts.Register(context.Background(), TestUsername, TestPassword, "Alice", "alice@example.com"); err != nil {
		panic(err)
	}

	cloud := &TestCloud{
		Accounts: accts,
		Store:    memory.New(accts, mockClock, memory.Config{QuotaBytes: 1 << 20}),
	}
	return newTestDevice(cloud, mockClock)
}

// NewDevice creates a second app sharing this app's clock and cloud but
// with its own local storage, like another browser on another machine
func (t *TestApp) NewDevice() *TestApp {
	return newTestDevice(t.Cloud, t.MockClock)
}

func newTestDevice(cloud *TestCloud, mockClock *mocks.MockClock) *TestApp {
	mockRandom := mocks.NewMockRandom()
	rem := &Remote{Store: cloud.Store, Provider: cloud.Accounts}

	app := newWithDependencies(memorystorage.New(), rem, mockClock, mockRandom, cloudsync.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Cloud:      cloud,
	}
}

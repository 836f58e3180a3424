package registry_test

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/plugin-host/internal/registry"
)

type mockVersionStore struct {
	mock.Mock
}

func (m *mockVersionStore) GetPluginVersion(toolkitID string) (string, error) {
	args := m.Called(toolkitID)
	return args.String(0), args.Error(1)
}

func (m *mockVersionStore) UpsertPluginVersion(toolkitID, version string) error {
	args := m.Called(toolkitID, version)
	return args.Error(0)
}

func TestVersionTracker(t *testing.T) {
	active := registry.Outcome{ToolkitID: "com.example.p", State: registry.StateActive, Version: "1.1.0+x"}

	t.Run("first sighting is recorded", func(t *testing.T) {
		store := new(mockVersionStore)
		store.On("GetPluginVersion", "com.example.p").Return("", nil)
		store.On("UpsertPluginVersion", "com.example.p", "1.1.0+x").Return(nil)

		registry.NewVersionTracker(store).Report(active)
		store.AssertExpectations(t)
	})

	transitions := []struct {
		name     string
		previous string
		current  string
		level    logrus.Level
		message  string
	}{
		{"upgrade", "1.0.0+x", "1.1.0+x", logrus.InfoLevel, "Plugin upgraded from 1.0.0+x to 1.1.0+x"},
		{"downgrade", "1.2.0+x", "1.1.0+x", logrus.WarnLevel, "Plugin downgraded from 1.2.0+x to 1.1.0+x"},
		{"rebuild", "1.1.0+w", "1.1.0+x", logrus.InfoLevel, "Plugin rebuilt as 1.1.0+x"},
	}
	for _, tt := range transitions {
		t.Run(tt.name+" is logged and recorded", func(t *testing.T) {
			hook := logtest.NewGlobal()
			defer hook.Reset()

			store := new(mockVersionStore)
			store.On("GetPluginVersion", "com.example.p").Return(tt.previous, nil)
			store.On("UpsertPluginVersion", "com.example.p", tt.current).Return(nil)

			registry.NewVersionTracker(store).Report(registry.Outcome{
				ToolkitID: "com.example.p", State: registry.StateActive, Version: tt.current,
			})
			store.AssertExpectations(t)

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, tt.message, entry.Message)
			assert.Equal(t, "com.example.p", entry.Data["toolkit_id"])
		})
	}

	t.Run("first sighting logs nothing", func(t *testing.T) {
		hook := logtest.NewGlobal()
		defer hook.Reset()

		store := new(mockVersionStore)
		store.On("GetPluginVersion", "com.example.p").Return("", nil)
		store.On("UpsertPluginVersion", "com.example.p", "1.1.0+x").Return(nil)

		registry.NewVersionTracker(store).Report(active)
		assert.Empty(t, hook.AllEntries())
	})

	t.Run("same version is not rewritten", func(t *testing.T) {
		store := new(mockVersionStore)
		store.On("GetPluginVersion", "com.example.p").Return("1.1.0+x", nil)

		registry.NewVersionTracker(store).Report(active)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "UpsertPluginVersion", "com.example.p", "1.1.0+x")
	})

	t.Run("store read failure skips the write", func(t *testing.T) {
		store := new(mockVersionStore)
		store.On("GetPluginVersion", "com.example.p").Return("", errors.New("db closed"))

		registry.NewVersionTracker(store).Report(active)
		store.AssertNotCalled(t, "UpsertPluginVersion", "com.example.p", "1.1.0+x")
	})

	t.Run("rejected outcomes are ignored", func(t *testing.T) {
		store := new(mockVersionStore)
		registry.NewVersionTracker(store).Report(registry.Outcome{ToolkitID: "com.example.p", State: registry.StateRejected, Version: "1.0.0"})
		store.AssertNotCalled(t, "GetPluginVersion", "com.example.p")
	})
}

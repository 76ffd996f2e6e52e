package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/serroba/linkkeeper/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		settings, err := config.Load("", "https://links.example.com/")

		require.NoError(t, err)
		assert.Equal(t, "https://links.example.com/activate?activation_string", settings.ActivationLink)
		assert.Equal(t, "https://links.example.com/password/check/token?reset_string", settings.ResetLink)
		assert.NotEmpty(t, settings.Mail.ActivationBody)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.yaml")
		content := `
login_url: https://ui.example.com/login
reset_page_url: https://ui.example.com/reset
mail:
  activation_subject: Welcome to linkkeeper
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		settings, err := config.Load(path, "https://links.example.com")

		require.NoError(t, err)
		assert.Equal(t, "https://ui.example.com/login", settings.LoginURL)
		assert.Equal(t, "https://ui.example.com/reset", settings.ResetPageURL)
		assert.Equal(t, "Welcome to linkkeeper", settings.Mail.ActivationSubject)
		assert.Equal(t, "https://links.example.com/activate?activation_string", settings.ActivationLink)
		assert.NotEmpty(t, settings.Mail.ResetBody)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), "https://links.example.com")

		assert.Error(t, err)
	})
}

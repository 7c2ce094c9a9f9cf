package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "services.json", `{"services": ["bank_statement", "customer_info"]}`)
	writeFile(t, dir, "delay.json", `{"citizen_id": {"1234": 3, "5678": -2}}`)
	writeFile(t, dir, "bank_statement_citizen_id_1234.json", "{\n  \"balance\": 100\n}\n")
	writeFile(t, dir, "bank_statement_citizen_id_broken.json", "{not json")

	f := NewFiles(dir, 1)

	t.Run("services", func(t *testing.T) {
		services, err := f.Services()
		require.NoError(t, err)
		assert.Equal(t, []string{"bank_statement", "customer_info"}, services)
	})

	t.Run("missing services file is empty", func(t *testing.T) {
		services, err := NewFiles(t.TempDir(), 0).Services()
		require.NoError(t, err)
		assert.Empty(t, services)
	})

	t.Run("data is compacted", func(t *testing.T) {
		assert.Equal(t, `{"balance":100}`, f.Data("bank_statement", "citizen_id", "1234"))
	})

	t.Run("missing or unreadable data falls back to mock data", func(t *testing.T) {
		assert.Equal(t, MockData, f.Data("bank_statement", "citizen_id", "9999"))
		assert.Equal(t, MockData, f.Data("bank_statement", "citizen_id", "broken"))
		assert.Equal(t, MockData, f.Data("bank_statement", "../etc", "passwd"))
	})

	t.Run("delay", func(t *testing.T) {
		assert.Equal(t, 3, f.Delay("citizen_id", "1234"))
		assert.Equal(t, 0, f.Delay("citizen_id", "5678"), "negative delays clamp to zero")
		assert.Equal(t, 1, f.Delay("citizen_id", "0000"), "default for unknown subjects")
		assert.Equal(t, 2, NewFiles(t.TempDir(), 2).Delay("citizen_id", "1234"), "default without delay file")
	})
}

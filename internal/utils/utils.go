package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const configTemplate = `# Required for everything except public site lookups. Create one at
# https://nekoweb.org/api. Can also be set with the NEKOWEB_API_KEY environment variable.
api_key = "{{NEKOWEB_API_KEY}}"

# Optional API root, default "https://nekoweb.org/api"
base_url = "https://nekoweb.org/api"

# Optional User-Agent sent with every request, default "gonekoweb"
user_agent = "gonekoweb"

# Optional log level, default "info"
loglevel = "info"

# Optional read buffer for big-file uploads in bytes, default 4096. Every chunk is one request.
chunk_size = 4096

# Optional size in bytes above which uploads use the big-file flow, default 100 MiB.
big_file_threshold = 104857600

# Optional number of parallel uploads during deploy, default 4.
upload_workers = 4

# Optional settings for 'gonekoweb mock-server', a local stand-in for the API
[mock]
bind_address = "127.0.0.1"
port = 8787
api_key = "mock-api-key"
username = "mock"
`

// PromptAPIKey asks for a Nekoweb API key on out and reads it from in.
func PromptAPIKey(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Nekoweb API key (leave empty to fill in later): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// GenerateConfig writes a configuration file with apiKey filled in. An
// existing file is backed up to <path>.bak first.
func GenerateConfig(configPath, apiKey string) error {
	fmt.Printf("Generating config %s\n", configPath)

	config := strings.Replace(configTemplate, "{{NEKOWEB_API_KEY}}", apiKey, 1)

	// Check if config file already exists and back it up
	if _, err := os.Stat(configPath); err == nil {
		backupPath := configPath + ".bak"
		fmt.Printf("Backing up config %s\n", configPath)
		if err := os.Rename(configPath, backupPath); err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	fmt.Printf("Writing %s\n", configPath)
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

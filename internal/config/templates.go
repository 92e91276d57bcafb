package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Default returns the dwyl smart-home install configuration.
func Default() Config {
	var cfg Config
	if _, err := toml.Decode(defaultTemplate, &cfg); err != nil {
		panic(fmt.Sprintf("config: default template: %v", err))
	}
	return cfg
}

func Template() string {
	return defaultTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o600)
}

const defaultTemplate = `# homectl install configuration
env_file = ".env"
credential_key = "AUTH_API_KEY"
guidance_url = "https://git.io/JJ6sS"

# run after firmware packages are installed
firmware_commands = [
  ["mix", "local.hex", "--force"],
  ["mix", "local.rebar", "--force"],
  ["mix", "archive.install", "hex", "nerves_bootstrap", "--force"],
]

[package_manager]
name = "brew"
probe = ["brew", "--version"]
install = ["brew", "install"]
bootstrap = [
  "/bin/bash",
  "-c",
  '/bin/bash -c "$(curl -fsSL https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh)"',
]

[[tools]]
name = "git"
probe = ["git", "--version"]
package = "git"

[[tools]]
name = "elixir"
probe = ["elixir", "--version"]
package = "elixir"

[[tools]]
name = "fwup"
probe = ["fwup", "--version"]
package = "fwup"
group = "firmware"

[[tools]]
name = "squashfs"
probe = ["mksquashfs", "-version"]
package = "squashfs"
group = "firmware"

[[tools]]
name = "pkg-config"
probe = ["pkg-config", "--version"]
package = "pkg-config"
group = "firmware"

[[repositories]]
name = "hub server"
url = "https://github.com/dwyl/smart-home-auth-server.git"
setup = ["mix", "setup"]

[[repositories]]
name = "firmware"
url = "https://github.com/dwyl/smart-home-firmware.git"
setup = ["mix", "deps.get"]

[token]
repository = "hub server"
command = ["mix", "gen.token"]
`

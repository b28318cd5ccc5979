// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const configFileName = "config.toml"

type User struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

func (u *User) Empty() bool {
	return u == nil || len(u.Email) == 0 || len(u.Name) == 0
}

type Core struct {
	// Compression selects the loose-object compression method, "zlib"
	// (default) or "zstd".
	Compression string `toml:"compression,omitempty"`
	// ReadCache enables the lossy raw-object cache in front of reads.
	ReadCache bool `toml:"read-cache,omitempty"`
}

type Config struct {
	Core Core `toml:"core,omitempty"`
	User User `toml:"user,omitempty"`
}

// LoadConfig reads "config.toml" below the repository directory. A missing
// file yields the defaults.
func LoadConfig(gitDir string) (*Config, error) {
	config := &Config{}
	path := filepath.Join(gitDir, configFileName)
	if _, err := toml.DecodeFile(path, config); err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}
	return config, nil
}

// Save writes the configuration below the repository directory.
func (c *Config) Save(gitDir string) error {
	fd, err := os.Create(filepath.Join(gitDir, configFileName))
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(fd).Encode(c); err != nil {
		_ = fd.Close()
		return err
	}
	return fd.Close()
}

/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package config

// ActorConfig holds the recognised options on the compile actor.
type ActorConfig struct {
	ProjectDir string `mapstructure:"projectDir" yaml:"projectDir"`
	ConfigFile string `mapstructure:"configFile" yaml:"configFile"`

	// WorkspaceRoot is the actor's workspace_root.
	WorkspaceRoot string `mapstructure:"workspaceRoot" yaml:"workspaceRoot"`
	// EnableWatch selects watched vs one-shot run mode. Default false.
	EnableWatch bool `mapstructure:"enableWatch" yaml:"enableWatch"`
	// CacheEvictionThreshold is the generation count (default 30) after
	// which the memoisation subsystem evicts an entry.
	CacheEvictionThreshold int `mapstructure:"cacheEvictionThreshold" yaml:"cacheEvictionThreshold"`

	// Canonical public source control URL corresponding to workspace root
	// on primary branch.
	SourceControlRootUrl string `mapstructure:"sourceControlRootUrl" yaml:"sourceControlRootUrl"`
	// Verbose logging output
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// DefaultCacheEvictionThreshold is how many generations a memoised entry
// may go untouched before eviction.
const DefaultCacheEvictionThreshold = 30

func Default() *ActorConfig {
	return &ActorConfig{
		EnableWatch:            false,
		CacheEvictionThreshold: DefaultCacheEvictionThreshold,
	}
}

func (c *ActorConfig) Clone() *ActorConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

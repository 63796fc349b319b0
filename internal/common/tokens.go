package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

type TokenConfig struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Decimals int    `yaml:"decimals"`
}

type TokensConfig struct {
	Tokens []TokenConfig `yaml:"tokens"`
}

// TokenRegistry resolves token contract addresses to display symbols for
// console output and logs. Purely cosmetic; unknown addresses fall back to
// the raw address.
type TokenRegistry struct {
	byAddress map[string]TokenConfig
}

func LoadTokenRegistry(tokensFile string) (*TokenRegistry, error) {
	var tokensPath string
	if filepath.IsAbs(tokensFile) {
		tokensPath = tokensFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		tokensPath = filepath.Join(wd, tokensFile)
	}

	data, err := os.ReadFile(tokensPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", tokensFile, err)
	}

	var config TokensConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", tokensFile, err)
	}

	byAddress := make(map[string]TokenConfig, len(config.Tokens))
	for i, token := range config.Tokens {
		if token.Address == "" {
			return nil, fmt.Errorf("token at index %d missing address", i)
		}
		if token.Symbol == "" {
			return nil, fmt.Errorf("token at index %d missing symbol", i)
		}
		byAddress[strings.ToLower(token.Address)] = token
	}

	return &TokenRegistry{byAddress: byAddress}, nil
}

// EmptyTokenRegistry returns a registry that resolves nothing; every lookup
// falls back to the raw address.
func EmptyTokenRegistry() *TokenRegistry {
	return &TokenRegistry{byAddress: make(map[string]TokenConfig)}
}

// Symbol returns the display symbol for a token address, or the address
// itself when unknown.
func (r *TokenRegistry) Symbol(address string) string {
	if token, ok := r.byAddress[strings.ToLower(address)]; ok {
		return token.Symbol
	}
	return address
}

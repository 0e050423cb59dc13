package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kilnforge/kiln/client"
	"github.com/kilnforge/kiln/client/rpc"
	"github.com/kilnforge/kiln/common/check"
	"github.com/kilnforge/kiln/internal/registry"
	"github.com/kilnforge/kiln/internal/types"
	"github.com/kilnforge/kiln/services/compile"
	"github.com/kilnforge/kiln/services/deployer"
	"github.com/kilnforge/kiln/services/keysign"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	RPCEndpoint      string        `mapstructure:"rpc_endpoint"`
	SignerEndpoint   string        `mapstructure:"signer_endpoint"`
	CompilerEndpoint string        `mapstructure:"compiler_endpoint"`
	ChainID          string        `mapstructure:"chain_id"`
	RegistryDir      string        `mapstructure:"registry_dir"`
	Address          types.Address `mapstructure:"address"`
	Fee              uint64        `mapstructure:"fee"`
	GasLimit         uint64        `mapstructure:"gas_limit"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	PollTimeout      time.Duration `mapstructure:"poll_timeout"`
}

const (
	AddressField          = "address"
	RPCEndpointField      = "rpc_endpoint"
	SignerEndpointField   = "signer_endpoint"
	CompilerEndpointField = "compiler_endpoint"
)

const InitConfigTemplate = `; Configuration for the kiln contract deployer
[kiln]

; RPC endpoint of the chain node, e.g.
; rpc_endpoint = "http://127.0.0.1:46657"

; Endpoint of the signing service that holds your keys, e.g.
; signer_endpoint = "http://127.0.0.1:4767"

; Endpoint of the compile service, e.g.
; compiler_endpoint = "http://127.0.0.1:9091"

; Chain identifier; discovered from the node's genesis when unset.
; chain_id = ""

; Directory holding the contract registry files.
; registry_dir = "contracts"

; Address of the deployer account (the signer must hold its key).
; address = "WRITE_YOUR_ADDRESS_HERE"
`

var DefaultConfigPath string

func init() {
	homeDir, err := os.UserHomeDir()
	check.PanicIfErr(err)

	DefaultConfigPath = filepath.Join(homeDir, ".config/kiln/config.ini")
}

func InitDefaultConfig(configPath string) (string, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	dirPath := filepath.Dir(configPath)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(configPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if _, err = file.WriteString(InitConfigTemplate); err != nil {
		return "", fmt.Errorf("failed to write template to config file: %w", err)
	}
	return configPath, nil
}

// PatchConfig updates the given keys in the config file, preserving the rest
// of its content.
func PatchConfig(delta map[string]any) error {
	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		// impossible, since we set the default in SetConfigFile
		panic("config file is not set")
	}
	if _, err := os.Stat(configPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			configPath, err = InitDefaultConfig(configPath)
		}
		if err != nil {
			return err
		}
	}

	cfg, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	result := strings.Builder{}
	first := true
	for _, line := range strings.Split(string(cfg), "\n") {
		if !first {
			result.WriteByte('\n')
		} else {
			first = false
		}
		key := strings.TrimSpace(strings.Split(line, "=")[0])
		if value, ok := delta[key]; ok {
			result.WriteString(fmt.Sprintf("%s = %v", key, value))
			delete(delta, key)
		} else {
			result.WriteString(line)
		}
	}
	for key, value := range delta {
		result.WriteString(fmt.Sprintf("%s = %v\n", key, value))
	}
	return os.WriteFile(configPath, []byte(result.String()), 0o600)
}

// SetConfigFile sets the config file for the viper
func SetConfigFile(cfgFile string) {
	viper.SetConfigType("ini")
	viper.SetConfigFile(cfgFile)
}

var (
	rpcClient client.Client
	store     *registry.Store
	service   *deployer.Service
)

// InitService wires the node, signer, and compiler clients and the registry
// store into a deployer service shared by all commands.
func InitService(cfg *Config, logger zerolog.Logger) error {
	registryDir := cfg.RegistryDir
	if registryDir == "" {
		registryDir = "contracts"
	}
	var err error
	store, err = registry.NewStore(registryDir)
	if err != nil {
		return err
	}

	rpcClient = rpc.NewClient(cfg.RPCEndpoint, logger)
	service = deployer.NewService(
		rpcClient,
		keysign.NewClient(cfg.SignerEndpoint),
		compile.NewClient(cfg.CompilerEndpoint),
		store,
		deployer.Config{
			ChainID:      cfg.ChainID,
			Address:      cfg.Address,
			Fee:          cfg.Fee,
			GasLimit:     cfg.GasLimit,
			PollInterval: cfg.PollInterval,
			PollTimeout:  cfg.PollTimeout,
		},
	)
	return nil
}

func GetRpcClient() client.Client {
	return rpcClient
}

func GetRegistry() *registry.Store {
	return store
}

func GetService() *deployer.Service {
	return service
}

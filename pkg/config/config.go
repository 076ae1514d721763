package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config represents the main configuration structure
type Config struct {
	// Workflow engine API connection
	API APIConfig `json:"api"`

	// Source workbook configuration
	Source SourceConfig `json:"source"`

	// Path of the status ledger file tracking per-row outcomes
	LedgerPath string `json:"ledgerPath"`

	// Retry configuration
	RetryConfig RetryConfig `json:"retryConfig"`
}

// APIConfig represents the workflow engine API configuration
type APIConfig struct {
	BaseURL            string `json:"baseUrl"`            // Engine base URL
	ClientID           string `json:"clientId"`           // OAuth2 client id
	ClientSecret       string `json:"clientSecret"`       // OAuth2 client secret
	DatabaseID         string `json:"databaseId"`         // Content database identifier
	WorkflowGuid       string `json:"workflowGuid"`       // Workflow to start per row
	FormTypeGuid       string `json:"formTypeGuid"`       // Form type of created elements
	BusinessEntityGuid string `json:"businessEntityGuid"` // Optional business entity
	Path               string `json:"path"`               // Start path identifier
	Mode               string `json:"mode"`               // Element creation mode
	ResponseTimeout    int    `json:"responseTimeoutSeconds"`
}

// SourceConfig represents the source workbook configuration
type SourceConfig struct {
	DataFile             string `json:"dataFile"`             // Workbook with the rows to import
	DataSheet            string `json:"dataSheet"`            // Sheet holding the data rows
	MappingSheet         string `json:"mappingSheet"`         // Sheet holding the field mappings
	ItemListSheet        string `json:"itemListSheet"`        // Optional sheet with item-list rows
	ItemListMappingSheet string `json:"itemListMappingSheet"` // Optional sheet with item-list column mappings
	IDColumn             string `json:"idColumn"`             // Column holding the stable row identifier
	ItemListGuid         string `json:"itemListGuid"`         // GUID of the target item list
	ItemListName         string `json:"itemListName"`         // Name of the target item list
}

// RetryConfig represents retry configuration for element creation calls.
// MaxRetries is a pointer so an explicit 0 (retries disabled) is
// distinguishable from an absent key, which defaults.
type RetryConfig struct {
	MaxRetries       *int    `json:"maxRetries"`       // Maximum number of retries, 0 disables retrying
	BaseDelaySeconds float64 `json:"baseDelaySeconds"` // Base delay, doubled after each failed attempt
}

// Environment variables overriding the credentials in the config file
const (
	envClientID     = "WEBCON_CLIENT_ID"
	envClientSecret = "WEBCON_CLIENT_SECRET"
)

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	// Set default config path if not provided
	if configPath == "" {
		configPath = "webcon_import_config.json"
	}

	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse the config
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Credentials from the environment win over the config file
	if v := os.Getenv(envClientID); v != "" {
		config.API.ClientID = v
	}
	if v := os.Getenv(envClientSecret); v != "" {
		config.API.ClientSecret = v
	}

	// Validate the config
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	// Set default values for the source workbook
	if config.Source.DataSheet == "" {
		config.Source.DataSheet = "Data"
	}
	if config.Source.MappingSheet == "" {
		config.Source.MappingSheet = "Mappings"
	}

	// Set default values for element creation
	if config.API.Mode == "" {
		config.API.Mode = "standard"
	}
	if config.API.ResponseTimeout <= 0 {
		config.API.ResponseTimeout = 60 // Default to 60 seconds
	}

	// Set default values for the ledger
	if config.LedgerPath == "" {
		config.LedgerPath = "import_status.xlsx"
	}

	// Set default values for retry configuration
	if config.RetryConfig.MaxRetries == nil {
		defaultRetries := 3
		config.RetryConfig.MaxRetries = &defaultRetries
	}
	if config.RetryConfig.BaseDelaySeconds <= 0 {
		config.RetryConfig.BaseDelaySeconds = 2 // Default to 2 second base delay
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	// Validate API config
	if config.API.BaseURL == "" {
		return fmt.Errorf("api.baseUrl is required")
	}
	if config.API.ClientID == "" {
		return fmt.Errorf("api.clientId is required (config file or %s)", envClientID)
	}
	if config.API.ClientSecret == "" {
		return fmt.Errorf("api.clientSecret is required (config file or %s)", envClientSecret)
	}
	if config.API.DatabaseID == "" {
		return fmt.Errorf("api.databaseId is required")
	}
	if config.API.WorkflowGuid == "" {
		return fmt.Errorf("api.workflowGuid is required")
	}
	if config.API.FormTypeGuid == "" {
		return fmt.Errorf("api.formTypeGuid is required")
	}
	if config.API.Path == "" {
		return fmt.Errorf("api.path is required")
	}

	// Validate retry config
	if config.RetryConfig.MaxRetries != nil && *config.RetryConfig.MaxRetries < 0 {
		return fmt.Errorf("retryConfig.maxRetries must not be negative")
	}

	// Validate source config
	if config.Source.DataFile == "" {
		return fmt.Errorf("source.dataFile is required")
	}

	// Item-list support needs both sheets and the target list GUID
	if config.Source.ItemListSheet != "" {
		if config.Source.ItemListMappingSheet == "" {
			return fmt.Errorf("source.itemListMappingSheet is required when source.itemListSheet is set")
		}
		if config.Source.ItemListGuid == "" {
			return fmt.Errorf("source.itemListGuid is required when source.itemListSheet is set")
		}
	}

	return nil
}

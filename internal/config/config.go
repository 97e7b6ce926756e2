// Package config defines the data structures related to configuration and
// includes functions for loading and validating a deal file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/mortgage"
	"github.com/iwvelando/deal-calculator/pkg/purchasetax"
	"github.com/iwvelando/deal-calculator/pkg/servicecost"
	"github.com/iwvelando/deal-calculator/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for deal-calculator.
type Configuration struct {
	Deal     DealConfig     `yaml:"deal"`
	VAT      VATConfig      `yaml:"vat,omitempty"`
	Mortgage *mortgage.Loan `yaml:"mortgage,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, html, json
}

// VATConfig points at the backend's VAT rate endpoint. It is only consulted
// when the deal does not pin a VAT rate.
type VATConfig struct {
	SourceURL      string   `yaml:"sourceURL,omitempty"`
	TimeoutSeconds int      `yaml:"timeoutSeconds,omitempty"`
	FallbackRate   *float64 `yaml:"fallbackRate,omitempty"`
}

// DealConfig describes the transaction being priced.
type DealConfig struct {
	Price              float64                    `json:"price" yaml:"price"`
	Area               float64                    `json:"area" yaml:"area"`
	PropertyType       string                     `json:"propertyType,omitempty" yaml:"propertyType,omitempty"`
	VATRate            *float64                   `json:"vatRate,omitempty" yaml:"vatRate,omitempty"`
	Buyers             []purchasetax.Buyer        `json:"buyers" yaml:"buyers"`
	Services           []servicecost.ServiceInput `json:"services,omitempty" yaml:"services,omitempty"`
	UseDefaultServices bool                       `json:"useDefaultServices,omitempty" yaml:"useDefaultServices,omitempty"`
	Construction       *servicecost.ServiceInput  `json:"construction,omitempty" yaml:"construction,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// VATFallbackRate returns the configured fallback VAT rate or the default.
func (c *Configuration) VATFallbackRate() float64 {
	if c.VAT.FallbackRate != nil {
		return *c.VAT.FallbackRate
	}
	return constants.DefaultVATRate
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.DealValidator{
		Price:        c.Deal.Price,
		Area:         c.Deal.Area,
		PropertyType: c.Deal.PropertyType,
		VATRate:      c.Deal.VATRate,
		Buyers:       c.Deal.Buyers,
		Services:     c.Deal.EffectiveServices(),
	}
	warnings := validator.ValidateAll()

	if c.Deal.Construction != nil && !purchasetax.IsLand(c.Deal.PropertyType) {
		warnings = append(warnings, "Construction cost is set on a non-land deal - it is still added to the total")
	}
	if c.Mortgage != nil {
		if err := c.Mortgage.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("Mortgage is invalid and will be skipped: %v", err))
		}
	}
	return warnings
}

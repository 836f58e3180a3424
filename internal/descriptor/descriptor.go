// Package descriptor loads and checks the static manifest a photo-management
// host reads to register an export-service plugin.
package descriptor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// DescriptorFileNames are looked up in a plugin directory, in order.
var DescriptorFileNames = []string{"plugin.yml", "plugin.yaml", "plugin.json"}

// ServiceProvider registers one export destination.
type ServiceProvider struct {
	Title LocString `yaml:"title" json:"title" validate:"required"`
	File  string    `yaml:"file" json:"file" validate:"required"`
}

// ServiceProviders accepts either a single provider mapping or a list of them.
type ServiceProviders []ServiceProvider

func (p *ServiceProviders) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var one ServiceProvider
		if err := node.Decode(&one); err != nil {
			return err
		}
		*p = ServiceProviders{one}
	case yaml.SequenceNode:
		var many []ServiceProvider
		if err := node.Decode(&many); err != nil {
			return err
		}
		*p = many
	default:
		return fmt.Errorf("line %d: exportServiceProvider must be a mapping or a list of mappings", node.Line)
	}
	return nil
}

func (ServiceProviders) JSONSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	item := r.Reflect(&ServiceProvider{})
	item.Version = ""
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			item,
			{Type: "array", Items: item},
		},
	}
}

// Descriptor is the parsed plugin manifest. It is never modified after Parse
// returns, so it may be shared between goroutines.
type Descriptor struct {
	SDKVersion             SDKVersion       `yaml:"sdkVersion" json:"sdkVersion" validate:"required"`
	SDKMinimumVersion      SDKVersion       `yaml:"sdkMinimumVersion,omitempty" json:"sdkMinimumVersion,omitempty"`
	ToolkitIdentifier      string           `yaml:"toolkitIdentifier" json:"toolkitIdentifier" validate:"required,reversedomain"`
	PluginName             LocString        `yaml:"pluginName,omitempty" json:"pluginName,omitempty"`
	PluginInfoURL          string           `yaml:"pluginInfoUrl,omitempty" json:"pluginInfoUrl,omitempty" validate:"omitempty,url"`
	ExportServiceProviders ServiceProviders `yaml:"exportServiceProvider" json:"exportServiceProvider" validate:"required,min=1,dive"`
	MetadataProvider       string           `yaml:"metadataProvider,omitempty" json:"metadataProvider,omitempty"`
	Version                *BuildVersion    `yaml:"version,omitempty" json:"version,omitempty"`
}

// DisplayName is the plugin name as a host without translations shows it.
func (d *Descriptor) DisplayName() string {
	if d.PluginName != "" {
		return d.PluginName.Display()
	}
	return d.ToolkitIdentifier
}

// Parse decodes descriptor source and checks every required field.
// It has no side effects.
func Parse(data []byte) (*Descriptor, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, malformed("", "descriptor is empty")
	}

	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, &Error{Kind: KindMalformedDescriptor, Message: "cannot decode descriptor", Cause: err}
	}

	// A plugin that names no minimum supports only the SDK it targets.
	if d.SDKMinimumVersion.IsZero() {
		d.SDKMinimumVersion = d.SDKVersion
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// FindDescriptorFile returns the path of the descriptor inside pluginDir.
func FindDescriptorFile(pluginDir string) (string, error) {
	for _, name := range DescriptorFileNames {
		path := filepath.Join(pluginDir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", &Error{
		Kind:    KindMalformedDescriptor,
		Path:    pluginDir,
		Message: "no descriptor file in plugin directory",
		Cause:   ErrDescriptorNotFound,
	}
}

// Load reads and parses the descriptor of the plugin in pluginDir.
func Load(pluginDir string) (*Descriptor, error) {
	path, err := FindDescriptorFile(pluginDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: KindMalformedDescriptor, Path: path, Message: "cannot read descriptor", Cause: err}
	}

	d, err := Parse(data)
	if err != nil {
		if de, ok := err.(*Error); ok && de.Path == "" {
			de.Path = path
		}
		return nil, err
	}
	return d, nil
}

package descriptor

import (
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

var sdkVersionPattern = regexp.MustCompile(`^v?\d+(\.\d+)?$`)

// SDKVersion is a host API version written as a decimal, e.g. 5.0 or 6.
// Versions compare as numbers, so 5.10 equals 5.1 and sorts before 5.2.
// The zero value sorts before every parsed version.
type SDKVersion struct {
	raw string
	num *big.Rat
}

// ParseSDKVersion parses a decimal host API version. A leading 'v' is accepted.
func ParseSDKVersion(s string) (SDKVersion, error) {
	s = strings.TrimSpace(s)
	if !sdkVersionPattern.MatchString(s) {
		return SDKVersion{}, fmt.Errorf("invalid SDK version %q: expected a decimal such as 5.0", s)
	}
	raw := strings.TrimPrefix(s, "v")
	num, ok := new(big.Rat).SetString(raw)
	if !ok {
		return SDKVersion{}, fmt.Errorf("invalid SDK version %q", s)
	}
	return SDKVersion{raw: raw, num: num}, nil
}

// MustSDKVersion is ParseSDKVersion for constants; it panics on bad input.
func MustSDKVersion(s string) SDKVersion {
	v, err := ParseSDKVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (s SDKVersion) IsZero() bool {
	return s.num == nil
}

// Compare returns -1, 0 or 1 as s is older than, equal to, or newer than o.
func (s SDKVersion) Compare(o SDKVersion) int {
	switch {
	case s.num == nil && o.num == nil:
		return 0
	case s.num == nil:
		return -1
	case o.num == nil:
		return 1
	}
	return s.num.Cmp(o.num)
}

// String returns the version as declared, without a leading 'v'.
func (s SDKVersion) String() string {
	return s.raw
}

// UnmarshalYAML reads the raw scalar so that 5.0 is not collapsed to 5.
func (s *SDKVersion) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: SDK version must be a scalar", node.Line)
	}
	v, err := ParseSDKVersion(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = v
	return nil
}

func (s SDKVersion) MarshalYAML() (interface{}, error) {
	if s.IsZero() {
		return nil, nil
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s.String()}, nil
}

func (s SDKVersion) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SDKVersion) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*s = SDKVersion{}
		return nil
	}
	v, err := ParseSDKVersion(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (SDKVersion) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: "Host API version as a decimal, e.g. 5.0",
		OneOf: []*jsonschema.Schema{
			{Type: "number", Minimum: json.Number("0")},
			{Type: "string", Pattern: sdkVersionPattern.String()},
		},
	}
}

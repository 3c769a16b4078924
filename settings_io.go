package lumen

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/gekko3d/lumen/light2d/post"
	"gopkg.in/yaml.v3"
)

func EncodeQualitySettings(q QualitySettings) ([]byte, error) {
	return yaml.Marshal(q)
}

// DecodeQualitySettings reads a YAML bundle on top of the High preset. Fields
// that fail to decode keep their preset value; the returned error joins every
// field failure, and the settings are usable even when it is non-nil.
func DecodeQualitySettings(data []byte) (QualitySettings, error) {
	q := GetPreset(QualityHigh)
	err := decodeFields(data, &q)
	q.Validate()
	return q, err
}

func EncodePostProcessSettings(s post.Settings) ([]byte, error) {
	return yaml.Marshal(s)
}

// DecodePostProcessSettings works like DecodeQualitySettings, starting from
// post.DefaultSettings.
func DecodePostProcessSettings(data []byte) (post.Settings, error) {
	s := post.DefaultSettings()
	err := decodeFields(data, &s)
	s.Validate()
	return s, err
}

// decodeFields applies every key of a YAML mapping to the matching tagged
// field of out independently. Unknown keys are ignored.
func decodeFields[T any](data []byte, out *T) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("settings: line %d: expected a mapping", root.Line)
	}

	fields := yamlFieldIndex(reflect.TypeFor[T]())
	v := reflect.ValueOf(out).Elem()
	var errs []error
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		idx, ok := fields[key.Value]
		if !ok {
			continue
		}
		f := v.Field(idx)
		tmp := reflect.New(f.Type())
		if err := val.Decode(tmp.Interface()); err != nil {
			errs = append(errs, fmt.Errorf("settings: %s: %w", key.Value, err))
			continue
		}
		f.Set(tmp.Elem())
	}
	return errors.Join(errs...)
}

func yamlFieldIndex(t reflect.Type) map[string]int {
	out := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		out[name] = i
	}
	return out
}

func SaveQualitySettings(filename string, q QualitySettings) error {
	data, err := EncodeQualitySettings(q)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func LoadQualitySettings(filename string) (QualitySettings, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return GetPreset(QualityHigh), err
	}
	return DecodeQualitySettings(data)
}

func SavePostProcessSettings(filename string, s post.Settings) error {
	data, err := EncodePostProcessSettings(s)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func LoadPostProcessSettings(filename string) (post.Settings, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return post.DefaultSettings(), err
	}
	return DecodePostProcessSettings(data)
}

var ErrPresetOrder = errors.New("quality presets are not ordered low <= medium <= high <= ultra")

// QualityPresets maps each fixed level to its bundle.
type QualityPresets map[QualityLevel]QualitySettings

func DefaultQualityPresets() QualityPresets {
	p := make(QualityPresets, 4)
	for _, l := range []QualityLevel{QualityLow, QualityMedium, QualityHigh, QualityUltra} {
		p[l] = GetPreset(l)
	}
	return p
}

// CheckOrder verifies that light counts, shadow map resolution and render
// scale never decrease from Low to Ultra, and that Ultra enables at least as
// many effects as Low.
func (p QualityPresets) CheckOrder() error {
	levels := []QualityLevel{QualityLow, QualityMedium, QualityHigh, QualityUltra}
	for _, l := range levels {
		if _, ok := p[l]; !ok {
			return fmt.Errorf("quality presets: missing %s", l)
		}
	}
	for i := 1; i < len(levels); i++ {
		lo, hi := p[levels[i-1]], p[levels[i]]
		switch {
		case lo.MaxLightsPerFrame > hi.MaxLightsPerFrame:
			return fmt.Errorf("%w: maxLightsPerFrame %s > %s", ErrPresetOrder, lo.Level, hi.Level)
		case lo.MaxLightsPerPixel > hi.MaxLightsPerPixel:
			return fmt.Errorf("%w: maxLightsPerPixel %s > %s", ErrPresetOrder, lo.Level, hi.Level)
		case lo.ShadowMapResolution > hi.ShadowMapResolution:
			return fmt.Errorf("%w: shadowMapResolution %s > %s", ErrPresetOrder, lo.Level, hi.Level)
		case lo.RenderScale > hi.RenderScale:
			return fmt.Errorf("%w: renderScale %s > %s", ErrPresetOrder, lo.Level, hi.Level)
		}
	}
	if p[QualityLow].EffectCount() > p[QualityUltra].EffectCount() {
		return fmt.Errorf("%w: low enables more effects than ultra", ErrPresetOrder)
	}
	return nil
}

type presetFile struct {
	Presets QualityPresets `json:"presets"`
}

func SaveQualityPresets(filename string, presets QualityPresets) error {
	bytes, err := json.MarshalIndent(presetFile{Presets: presets}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, bytes, 0644)
}

// LoadQualityPresets reads a preset table. Every bundle is clamped and
// relabelled with its key, and the table must pass CheckOrder.
func LoadQualityPresets(filename string) (QualityPresets, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var f presetFile
	if err := json.Unmarshal(bytes, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	delete(f.Presets, QualityCustom)
	for l, q := range f.Presets {
		q.Level = l
		f.Presets[l] = q.Validated()
	}
	if err := f.Presets.CheckOrder(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return f.Presets, nil
}

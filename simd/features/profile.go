// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package features

import (
	"io"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Profile is a named feature set read from YAML:
//
//	profiles:
//	  - name: skylake-x
//	    base: avx512
//	  - name: haswell-nofma
//	    base: avx2
//	    exclude: [fma]
//	  - name: custom
//	    features: [sse4.2, popcnt]
type Profile struct {
	Name     string   `yaml:"name"`
	Base     string   `yaml:"base,omitempty"`
	Features []string `yaml:"features,omitempty"`
	Exclude  []string `yaml:"exclude,omitempty"`
}

// Set builds the profile's feature set: the base preset, plus Features,
// normalized, minus Exclude together with everything that implies an
// excluded feature.
func (p Profile) Set() (Set, error) {
	var s Set
	if p.Base != "" {
		b, ok := Preset(p.Base)
		if !ok {
			return 0, errors.Wrapf(ErrUnknownFeature, "profile %q: base preset %q", p.Name, p.Base)
		}
		s = b
	}
	for _, name := range p.Features {
		add, err := ParseSet(name)
		if err != nil {
			return 0, errors.Wrapf(err, "profile %q", p.Name)
		}
		s |= add
	}
	s = s.Normalize()
	for _, name := range p.Exclude {
		f, err := ParseFeature(name)
		if err != nil {
			return 0, errors.Wrapf(err, "profile %q", p.Name)
		}
		s = s.Drop(f)
	}
	return s, nil
}

// Drop removes fs and every feature that implies one of them, keeping the
// set consistent under Normalize.
func (s Set) Drop(fs ...Feature) Set {
	drop := Of(fs...)
	for _, g := range s.Features() {
		if Of(g).Normalize()&drop != 0 {
			s = s.Without(g)
		}
	}
	return s
}

// Profiles maps profile names to their feature sets.
type Profiles map[string]Set

// Lookup returns the named profile, falling back to presets and then to a
// comma list.
func (ps Profiles) Lookup(name string) (Set, error) {
	if s, ok := ps[name]; ok {
		return s, nil
	}
	return ParseSet(name)
}

// Names returns the profile names, sorted.
func (ps Profiles) Names() []string {
	names := lo.Keys(ps)
	slices.Sort(names)
	return names
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles decodes a YAML profile document.
func LoadProfiles(r io.Reader) (Profiles, error) {
	var pf profileFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding feature profiles")
	}
	dups := lo.FindDuplicates(lo.Map(pf.Profiles, func(p Profile, _ int) string { return p.Name }))
	if len(dups) > 0 {
		return nil, errors.Errorf("duplicate feature profiles: %s", strings.Join(dups, ", "))
	}
	ps := make(Profiles, len(pf.Profiles))
	for _, p := range pf.Profiles {
		if p.Name == "" {
			return nil, errors.New("feature profile without a name")
		}
		s, err := p.Set()
		if err != nil {
			return nil, err
		}
		ps[p.Name] = s
	}
	return ps, nil
}

// LoadProfileFile reads profiles from a YAML file.
func LoadProfileFile(path string) (Profiles, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening feature profiles")
	}
	defer f.Close()
	ps, err := LoadProfiles(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return ps, nil
}

// MarshalYAML encodes the set as a list of feature names.
func (s Set) MarshalYAML() (any, error) {
	return s.Names(), nil
}

// UnmarshalYAML accepts either a list of names or a single comma list.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := ParseSet(node.Value)
		if err != nil {
			return err
		}
		*s = v
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		v, err := ParseSet(strings.Join(names, ","))
		if err != nil {
			return err
		}
		*s = v
		return nil
	default:
		return errors.Errorf("line %d: feature set must be a string or a list", node.Line)
	}
}

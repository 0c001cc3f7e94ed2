/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Decode parses a YAML or JSON LayoutOptimization, applies defaults and
// validates it. Unknown fields are rejected.
func Decode(data []byte) (*LayoutOptimization, error) {
	obj := &LayoutOptimization{}
	if err := yaml.UnmarshalStrict(data, obj); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", KindLayoutOptimization, err)
	}
	if obj.APIVersion != "" && obj.APIVersion != SchemeGroupVersion.String() {
		return nil, fmt.Errorf("unsupported apiVersion %q, want %q", obj.APIVersion, SchemeGroupVersion.String())
	}
	SetDefaults(obj)
	if errs := Validate(obj); len(errs) > 0 {
		return nil, errs.ToAggregate()
	}
	return obj, nil
}

// Load reads and decodes a LayoutOptimization file.
func Load(path string) (*LayoutOptimization, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	obj, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obj, nil
}

// Marshal renders a result as YAML.
func (r *OptimizationResult) Marshal() ([]byte, error) {
	if r.APIVersion == "" {
		r.APIVersion = SchemeGroupVersion.String()
	}
	if r.Kind == "" {
		r.Kind = KindOptimizationResult
	}
	return yaml.Marshal(r)
}

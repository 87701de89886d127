// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"maps"
	"slices"
	"strings"
)

// mergeEnv overlays each layer onto base, which is in KEY=value form.
// Later layers win. Existing keys keep their position, new keys are appended in sorted order.
func mergeEnv(base []string, layers ...map[string]string) []string {
	env := slices.Clone(base)
	index := make(map[string]int, len(env))

	for i, kv := range env {
		k, _, _ := strings.Cut(kv, "=")
		index[k] = i
	}

	for _, layer := range layers {
		for _, k := range slices.Sorted(maps.Keys(layer)) {
			kv := k + "=" + layer[k]

			if i, ok := index[k]; ok {
				env[i] = kv
				continue
			}

			index[k] = len(env)
			env = append(env, kv)
		}
	}

	return env
}

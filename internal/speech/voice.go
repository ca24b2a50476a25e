// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import "strings"

// ChooseVoice picks a synthesis voice by marker preference: the first
// marker that matches any voice's name or language (case-insensitive
// substring) wins. Returns "" when nothing matches or no voices are
// available, which callers pass through as "platform default".
//
// This is a heuristic, not a contract - voice inventories differ per
// machine, so callers must tolerate any voice being chosen.
func ChooseVoice(voices []Voice, markers []string) string {
	if len(voices) == 0 {
		return ""
	}

	for _, marker := range markers {
		m := strings.ToLower(marker)
		for _, v := range voices {
			if strings.Contains(strings.ToLower(v.Name), m) ||
				strings.Contains(strings.ToLower(v.Lang), m) {
				return v.Name
			}
		}
	}
	return ""
}

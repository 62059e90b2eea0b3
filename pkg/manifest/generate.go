// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"strings"
)

// Generate renders m as a manifest document that Parse accepts.
// Boolean flags are only written when set.
func Generate(m *Manifest) string {
	var sb strings.Builder

	sb.WriteString("// extlib manifest\n\n")

	if m == nil {
		sb.WriteString("libraries: []\n")
		return sb.String()
	}

	if m.Name != "" {
		sb.WriteString(fmt.Sprintf("name: %q\n", m.Name))
	}
	if m.Description != "" {
		sb.WriteString(fmt.Sprintf("description: %q\n", m.Description))
	}

	if len(m.Libraries) == 0 {
		sb.WriteString("libraries: []\n")
		return sb.String()
	}

	sb.WriteString("libraries: [\n")
	for _, lib := range m.Libraries {
		fields := []string{fmt.Sprintf("path: %q", lib.Path)}
		if lib.Pack {
			fields = append(fields, "pack: true")
		}
		if lib.ExplicitExports {
			fields = append(fields, "explicit_exports: true")
		}
		sb.WriteString("\t{" + strings.Join(fields, ", ") + "},\n")
	}
	sb.WriteString("]\n")

	return sb.String()
}

package graph

// =============================================================================
// Domain Colors - Single Source of Truth
// =============================================================================

// NeutralColor is used for nodes without domains and edges without a shared
// domain in the current lookup.
const NeutralColor = "#CCCCCC"

// palette is the fixed, ordered color palette for domains. Colors cycle when
// there are more domains than entries.
var palette = []string{
	"#FF6B6B", // red
	"#4ECDC4", // teal
	"#45B7D1", // sky blue
	"#96CEB4", // sage green
	"#FFEAA7", // yellow
	"#DDA0DD", // plum
	"#98D8C8", // mint
	"#F7DC6F", // gold
	"#BB8FCE", // purple
	"#85C1E9", // light blue
	"#F8B500", // amber
	"#00CED1", // dark cyan
	"#FF69B4", // hot pink
	"#32CD32", // lime green
	"#FF8C00", // dark orange
}

// PaletteSize is the number of distinct domain colors before cycling.
const PaletteSize = 15

// DomainColor returns the palette color for a domain at the given sequence
// position.
func DomainColor(index int) string {
	return palette[index%len(palette)]
}

// =============================================================================
// Lookup - per-call domain resolution
// =============================================================================

// DomainInfo is the derived display record for one domain: its name, its
// palette color, and its position in the sequence the lookup was built from.
type DomainInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Index int    `json:"index"`
}

// Lookup maps domain ID to derived display info.
//
// Color and index are positional: they are valid only for the domain sequence
// this lookup was built from. Rebuilding from a filtered or reordered
// sequence can assign the same domain a different color. Consumers that pair
// legend swatches with node colors must use a lookup from the same render
// pass.
type Lookup map[string]DomainInfo

// BuildLookup derives a Lookup from an ordered domain sequence.
// An empty input yields an empty lookup; BuildLookup never fails.
func BuildLookup(domains []Domain) Lookup {
	lookup := make(Lookup, len(domains))
	for i, d := range domains {
		lookup[d.ID] = DomainInfo{
			ID:    d.ID,
			Name:  d.Name,
			Color: DomainColor(i),
			Index: i,
		}
	}
	return lookup
}

// ResolveDomains expands a formula's domain IDs into resolved display records,
// preserving the order of DomainIDs. IDs missing from the lookup (dangling
// references) are skipped, never an error.
func ResolveDomains(f *Formula, lookup Lookup) []DomainInfo {
	resolved := make([]DomainInfo, 0, len(f.DomainIDs))
	for _, id := range f.DomainIDs {
		if info, ok := lookup[id]; ok {
			resolved = append(resolved, info)
		}
	}
	return resolved
}

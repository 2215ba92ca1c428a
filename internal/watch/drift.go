package watch

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Change はリソース種別ごとの件数の変化
type Change struct {
	ResourceType string `json:"resourceType"`
	Old          int    `json:"old"`
	New          int    `json:"new"`
}

// Delta は増減数
func (c Change) Delta() int {
	return c.New - c.Old
}

// String は「users: +5 (100 → 105)」の形式で返す
func (c Change) String() string {
	return fmt.Sprintf("%s: %+d (%d → %d)", c.ResourceType, c.Delta(), c.Old, c.New)
}

// DetectChanges は2つのリソース件数を比較し、件数が異なる種別だけを返す
// 片側にしかない種別は反対側を 0 とみなす。結果は種別名順
func DetectChanges(old, new map[string]int) []Change {
	keys := lo.UniqKeys(old, new)
	sort.Strings(keys)

	changes := make([]Change, 0)
	for _, k := range keys {
		if old[k] != new[k] {
			changes = append(changes, Change{ResourceType: k, Old: old[k], New: new[k]})
		}
	}
	return changes
}

package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// WorkflowsResource は include ではなく includeWorkflows フラグで送るリソース
const WorkflowsResource = "workflows"

// ResourceCategory はバックアップ対象の選択肢
type ResourceCategory struct {
	Name      string
	Label     string
	Resources []string
	Checked   bool
}

// ResourceCategories はバックアップ時に選べるカテゴリ
var ResourceCategories = []ResourceCategory{
	{Name: "core", Label: "Core Identity (users, groups, groupRules)", Resources: []string{"users", "groups", "groupRules"}, Checked: true},
	{Name: "apps", Label: "Applications (apps, oauthClients)", Resources: []string{"apps", "oauthClients"}, Checked: true},
	{Name: "policies", Label: "Policies (sign-on, MFA, password)", Resources: []string{"policies"}, Checked: true},
	{Name: "security", Label: "Security (network zones, authenticators)", Resources: []string{"networkZones", "trustedOrigins", "authenticators"}, Checked: true},
	{Name: "auth", Label: "Authorization (auth servers, IdPs, roles)", Resources: []string{"authorizationServers", "identityProviders", "roles"}, Checked: true},
	{Name: "workflows", Label: "Workflows", Resources: []string{WorkflowsResource}, Checked: false},
}

// WatchResources は watch でトリガーするリソース
var WatchResources = []string{"users", "groups", "apps", "policies"}

// KnownResources は全カテゴリのリソース名
func KnownResources() []string {
	return lo.FlatMap(ResourceCategories, func(c ResourceCategory, _ int) []string {
		return c.Resources
	})
}

// DefaultCategories は既定で選択されるカテゴリ名
func DefaultCategories() []string {
	checked := lo.Filter(ResourceCategories, func(c ResourceCategory, _ int) bool { return c.Checked })
	return lo.Map(checked, func(c ResourceCategory, _ int) string { return c.Name })
}

// ResourcesForCategories は選ばれたカテゴリ名をリソース名に展開する
func ResourcesForCategories(names []string) []string {
	selected := lo.Filter(ResourceCategories, func(c ResourceCategory, _ int) bool {
		return lo.Contains(names, c.Name)
	})
	return lo.FlatMap(selected, func(c ResourceCategory, _ int) []string {
		return c.Resources
	})
}

// SplitResourceList はカンマ区切りの指定を分割する。空要素と重複は除く
func SplitResourceList(value string) []string {
	parts := lo.Map(strings.Split(value, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Uniq(lo.Compact(parts))
}

// ParseResourceList はバックアップ用のリソース指定を解釈する
// リソース名に一致しないカテゴリ名だけを中身に展開し、それ以外はそのままサーバーへ渡す
func ParseResourceList(value string) ([]string, error) {
	known := KnownResources()
	var out []string
	for _, name := range SplitResourceList(value) {
		if lo.Contains(known, name) {
			out = append(out, name)
			continue
		}
		if cat, ok := lo.Find(ResourceCategories, func(c ResourceCategory) bool { return c.Name == name }); ok {
			out = append(out, cat.Resources...)
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no resource types specified")
	}
	return lo.Uniq(out), nil
}

// SplitWorkflows はリソース一覧から workflows を取り除き、含まれていたかを返す
func SplitWorkflows(resources []string) ([]string, bool) {
	return lo.Without(resources, WorkflowsResource), lo.Contains(resources, WorkflowsResource)
}

package assessment

import (
	"competition-portal/internal/model"
	"strings"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierGold   Tier = "gold"
	TierSilver Tier = "silver"
	TierBronze Tier = "bronze"
)

var tiers = []Tier{TierGold, TierSilver, TierBronze}

// tierKeywords 按顺序匹配，同一奖项名称只归入第一个命中的档次
var tierKeywords = []struct {
	tier     Tier
	keywords []string
}{
	{TierGold, []string{"金奖", "特等奖", "一等奖"}},
	{TierSilver, []string{"银奖", "二等奖"}},
	{TierBronze, []string{"铜奖", "三等奖"}},
}

// TierOf 按奖项名称中的关键字判定档次，无法识别时返回 false
func TierOf(awardName string) (Tier, bool) {
	for _, tk := range tierKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(awardName, kw) {
				return tk.tier, true
			}
		}
	}
	return "", false
}

type TierCounts struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Bronze int `json:"bronze"`
}

func (c *TierCounts) Add(t Tier) {
	switch t {
	case TierGold:
		c.Gold++
	case TierSilver:
		c.Silver++
	case TierBronze:
		c.Bronze++
	}
}

func (c *TierCounts) ptr(t Tier) *int {
	switch t {
	case TierGold:
		return &c.Gold
	case TierSilver:
		return &c.Silver
	}
	return &c.Bronze
}

var (
	two      = decimal.NewFromInt(2)
	awardCap = decimal.NewFromInt(3)

	tierValues = map[model.AwardLevel]map[Tier]decimal.Decimal{
		model.LevelSchool: {
			TierGold:   decimal.NewFromInt(1),
			TierSilver: decimal.RequireFromString("0.6"),
			TierBronze: decimal.RequireFromString("0.3"),
		},
		model.LevelProvincial: {
			TierGold:   decimal.NewFromInt(3),
			TierSilver: decimal.NewFromInt(2),
			TierBronze: decimal.NewFromInt(1),
		},
		model.LevelNational: {
			TierGold:   decimal.NewFromInt(3),
			TierSilver: decimal.NewFromInt(3),
			TierBronze: decimal.NewFromInt(3),
		},
	}
)

// Participation 参赛得分 = min(2, 实际/目标 × 2)，未设置目标时为空。
// 保留完整精度，导出时才保留两位小数
func Participation(actual int, target *int) decimal.NullDecimal {
	if target == nil || *target <= 0 {
		return decimal.NullDecimal{}
	}
	score := decimal.NewFromInt(int64(actual)).Mul(two).Div(decimal.NewFromInt(int64(*target)))
	return decimal.NewNullDecimal(decimal.Min(score, two))
}

// AwardScore 取达到的最高档次分值，不累加，上限 3 分
func AwardScore(awards map[model.AwardLevel]TierCounts) decimal.Decimal {
	best := decimal.Zero
	for level, counts := range awards {
		for _, t := range tiers {
			if *counts.ptr(t) == 0 {
				continue
			}
			if v := tierValues[level][t]; v.GreaterThan(best) {
				best = v
			}
		}
	}
	return decimal.Min(best, awardCap)
}

// resolve 人工填写的值优先于统计值
func resolve(override, computed decimal.NullDecimal) decimal.NullDecimal {
	if override.Valid {
		return override
	}
	return computed
}

func resolveCount(overrides map[string]int, key string, computed int) int {
	if v, ok := overrides[key]; ok {
		return v
	}
	return computed
}

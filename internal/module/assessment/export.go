package assessment

import (
	"competition-portal/tools"
	"fmt"

	"github.com/shopspring/decimal"
)

type reportRow struct {
	Year    int    `excel:"年度"`
	College string `excel:"学院"`

	CCRegistrations int     `excel:"挑战杯报名数"`
	CCTarget        *int    `excel:"挑战杯目标数"`
	CCSchool        string  `excel:"挑战杯校级(金/银/铜)"`
	CCProvincial    string  `excel:"挑战杯省级(金/银/铜)"`
	CCNational      string  `excel:"挑战杯国家级(金/银/铜)"`
	CCParticipation string  `excel:"挑战杯参赛得分"`
	CCAward         string  `excel:"挑战杯获奖得分"`
	CCNote          *string `excel:"挑战杯备注"`

	RTRegistrations int     `excel:"红旅报名数"`
	RTTarget        *int    `excel:"红旅目标数"`
	RTSchool        string  `excel:"红旅校级(金/银/铜)"`
	RTProvincial    string  `excel:"红旅省级(金/银/铜)"`
	RTNational      string  `excel:"红旅国家级(金/银/铜)"`
	RTParticipation string  `excel:"红旅参赛得分"`
	RTAward         string  `excel:"红旅获奖得分"`
	RTNote          *string `excel:"红旅备注"`

	Total  string  `excel:"总分"`
	Remark *string `excel:"备注"`
}

func tierText(c TierCounts) string {
	return fmt.Sprintf("%d/%d/%d", c.Gold, c.Silver, c.Bronze)
}

func scoreText(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

// Export 每个学院一行
func Export(reports []CollegeReport) ([]byte, error) {
	rows := make([]reportRow, 0, len(reports))
	for _, r := range reports {
		cc, rt := r.ChallengeCup, r.RedTravel
		rows = append(rows, reportRow{
			Year:            r.Year,
			College:         r.College,
			CCRegistrations: cc.Registrations,
			CCTarget:        cc.Target,
			CCSchool:        tierText(cc.School),
			CCProvincial:    tierText(cc.Provincial),
			CCNational:      tierText(cc.National),
			CCParticipation: scoreText(cc.ParticipationScore),
			CCAward:         scoreText(cc.AwardScore),
			CCNote:          cc.Note,
			RTRegistrations: rt.Registrations,
			RTTarget:        rt.Target,
			RTSchool:        tierText(rt.School),
			RTProvincial:    tierText(rt.Provincial),
			RTNational:      tierText(rt.National),
			RTParticipation: scoreText(rt.ParticipationScore),
			RTAward:         scoreText(rt.AwardScore),
			RTNote:          rt.Note,
			Total:           r.TotalScore.StringFixed(2),
			Remark:          r.Remark,
		})
	}
	return tools.ExcelBytes(tools.Sheet{Name: "学院评估", Rows: rows})
}

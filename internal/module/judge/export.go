package judge

import (
	"competition-portal/internal/model"
	"competition-portal/tools"
	"time"

	"gorm.io/gorm"
)

type scoreRow struct {
	ProjectID    uint      `excel:"项目ID"`
	Title        string    `excel:"项目名称"`
	Judge        string    `excel:"评委"`
	Score        float64   `excel:"总分"`
	Innovation   *float64  `excel:"创新性"`
	Feasibility  *float64  `excel:"可行性"`
	SocialValue  *float64  `excel:"社会价值"`
	Presentation *float64  `excel:"展示效果"`
	Comment      string    `excel:"评语"`
	UpdatedAt    time.Time `excel:"评分时间"`
}

type summaryRow struct {
	ProjectID uint    `excel:"项目ID"`
	Title     string  `excel:"项目名称"`
	College   string  `excel:"推送学院"`
	Count     int     `excel:"评分数"`
	Mean      float64 `excel:"平均分"`
	IsFinal   string  `excel:"进入决赛"`
}

// Export 导出竞赛内学校审核通过项目的评分明细与汇总
func Export(db *gorm.DB, competitionID uint) ([]byte, error) {
	var projects []model.Project
	err := db.Where("competition_id = ? AND status = ?", competitionID, model.StatusFinalApproved).
		Order("id").Find(&projects).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(projects))
	titles := make(map[uint]string, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
		titles[p.ID] = p.Title
	}

	var scores []model.Score
	if len(ids) > 0 {
		err = ActiveScores(db).Where("score.project_id IN ?", ids).
			Preload("Judge").Order("score.project_id, score.id").Find(&scores).Error
		if err != nil {
			return nil, err
		}
	}
	stats, err := Stats(db, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]scoreRow, 0, len(scores))
	for _, s := range scores {
		row := scoreRow{
			ProjectID:    s.ProjectID,
			Title:        titles[s.ProjectID],
			Score:        s.Value,
			Innovation:   s.Innovation,
			Feasibility:  s.Feasibility,
			SocialValue:  s.SocialValue,
			Presentation: s.Presentation,
			Comment:      s.Comment,
			UpdatedAt:    s.UpdatedAt,
		}
		if s.Judge != nil {
			row.Judge = s.Judge.RealName
		}
		rows = append(rows, row)
	}

	summary := make([]summaryRow, 0, len(projects))
	for _, p := range projects {
		st := stats[p.ID]
		isFinal := "否"
		if p.IsFinal {
			isFinal = "是"
		}
		summary = append(summary, summaryRow{
			ProjectID: p.ID,
			Title:     p.Title,
			College:   p.PushCollege,
			Count:     st.Count,
			Mean:      st.Mean,
			IsFinal:   isFinal,
		})
	}

	return tools.ExcelBytes(
		tools.Sheet{Name: "评分汇总", Rows: summary},
		tools.Sheet{Name: "评分明细", Rows: rows},
	)
}

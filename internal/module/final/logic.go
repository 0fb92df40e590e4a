package final

import (
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/internal/module/competition"
	"competition-portal/internal/module/judge"
	"context"
	"sort"

	"gorm.io/gorm"
)

// Ranked 一次重新计算后的排名
type Ranked struct {
	ProjectID uint    `json:"project_id"`
	Title     string  `json:"title"`
	Mean      float64 `json:"mean"`
	Count     int     `json:"count"`
	Rank      int     `json:"rank"`
	IsFinal   bool    `json:"is_final"`
}

// rank 平均分降序，平均分相同时评分数多者在前，再按项目 ID 升序
func rank(list []Ranked) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Mean != b.Mean {
			return a.Mean > b.Mean
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ProjectID < b.ProjectID
	})
	for i := range list {
		list[i].Rank = i + 1
	}
}

// Recompute 全量重算决赛名单。
// 只有学校审核通过且至少有一条有效评分的项目参与排名，前 final_quota 名入围，
// 其余项目一律取消入围并清空答辩顺序。与抽签共用竞赛锁
func Recompute(ctx context.Context, db *gorm.DB, competitionID uint) ([]Ranked, error) {
	unlock, err := lockCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var ranking []Ranked
	err = db.Transaction(func(tx *gorm.DB) error {
		comp, err := competition.Find(tx, competitionID)
		if err != nil {
			return err
		}

		var projects []model.Project
		err = tx.Select("id", "title").
			Where("competition_id = ? AND status = ?", competitionID, model.StatusFinalApproved).
			Order("id").Find(&projects).Error
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(projects))
		for _, p := range projects {
			ids = append(ids, p.ID)
		}
		stats, err := judge.Stats(tx, ids)
		if err != nil {
			return err
		}

		ranking = make([]Ranked, 0, len(stats))
		for _, p := range projects {
			st, ok := stats[p.ID]
			if !ok || st.Count == 0 {
				continue
			}
			ranking = append(ranking, Ranked{ProjectID: p.ID, Title: p.Title, Mean: st.Mean, Count: st.Count})
		}
		rank(ranking)

		quota := 0
		if comp.FinalQuota != nil {
			quota = *comp.FinalQuota
		}
		finalists := make([]uint, 0, quota)
		for i := range ranking {
			if i < quota {
				ranking[i].IsFinal = true
				finalists = append(finalists, ranking[i].ProjectID)
			}
		}

		demote := tx.Model(&model.Project{}).Where("competition_id = ?", competitionID)
		if len(finalists) > 0 {
			demote = demote.Where("id NOT IN ?", finalists)
		}
		if err := demote.Updates(map[string]any{"is_final": false, "defense_order": nil}).Error; err != nil {
			return err
		}
		if len(finalists) > 0 {
			if err := tx.Model(&model.Project{}).Where("id IN ?", finalists).Update("is_final", true).Error; err != nil {
				return err
			}
		}
		return compactOrders(tx, competitionID, len(finalists))
	})
	if err != nil {
		return nil, response.From(err, response.ErrDatabase)
	}
	return ranking, nil
}

// compactOrders 入围人数减少后若有顺序号超出 1..count，
// 把已抽签项目按原先后次序重新编号为 1..k
func compactOrders(tx *gorm.DB, competitionID uint, count int) error {
	var drawn []model.Project
	err := tx.Select("id", "defense_order").
		Where("competition_id = ? AND is_final = ? AND defense_order IS NOT NULL", competitionID, true).
		Order("defense_order").Find(&drawn).Error
	if err != nil {
		return err
	}
	if len(drawn) == 0 || *drawn[len(drawn)-1].DefenseOrder <= count {
		return nil
	}
	// 升序逐个改小，目标号码此时不会被其他项目占用
	for i, p := range drawn {
		if *p.DefenseOrder == i+1 {
			continue
		}
		if err := tx.Model(&model.Project{}).Where("id = ?", p.ID).Update("defense_order", i+1).Error; err != nil {
			return err
		}
	}
	return nil
}

type FinalistItem struct {
	ProjectID    uint    `json:"project_id"`
	Title        string  `json:"title"`
	TeamName     string  `json:"team_name"`
	Leader       string  `json:"leader"`
	PushCollege  string  `json:"push_college"`
	DefenseOrder *int    `json:"defense_order"`
	Mean         float64 `json:"mean"`
	Count        int     `json:"count"`
	Award        string  `json:"award"`
}

// Finalists 按项目 ID 列出入围项目
func Finalists(db *gorm.DB, competitionID uint) ([]FinalistItem, error) {
	var projects []model.Project
	err := db.Where("competition_id = ? AND is_final = ?", competitionID, true).
		Preload("Team.Leader").Preload("Award").Order("id").Find(&projects).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	ids := make([]uint, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	stats, err := judge.Stats(db, ids)
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}

	items := make([]FinalistItem, 0, len(projects))
	for _, p := range projects {
		item := FinalistItem{
			ProjectID:    p.ID,
			Title:        p.Title,
			PushCollege:  p.PushCollege,
			DefenseOrder: p.DefenseOrder,
			Mean:         stats[p.ID].Mean,
			Count:        stats[p.ID].Count,
		}
		if p.Team != nil {
			item.TeamName = p.Team.Name
			if p.Team.Leader != nil {
				item.Leader = p.Team.Leader.RealName
			}
		}
		if p.Award != nil {
			item.Award = p.Award.AwardName
		}
		items = append(items, item)
	}
	return items, nil
}

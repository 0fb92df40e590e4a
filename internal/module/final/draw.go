package final

import (
	"competition-portal/internal/global/locker"
	"competition-portal/internal/global/metrics"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/internal/module/competition"
	"competition-portal/internal/module/project"
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"gorm.io/gorm"
)

const (
	sourceDraw     = "draw"
	sourceAdmin    = "admin"
	sourceAutofill = "autofill"
)

// lockCompetition 同一竞赛的抽签、调整、补签互斥
func lockCompetition(ctx context.Context, competitionID uint) (func(), error) {
	unlock, err := locker.Default.Lock(ctx, fmt.Sprintf("defense_order:%d", competitionID))
	if err != nil {
		return nil, response.ErrInvalidState.WithTips("抽签人数较多，请稍后重试").WithOrigin(err)
	}
	return unlock, nil
}

// freeOrders 返回 1..count 中尚未被占用的顺序号，升序
func freeOrders(tx *gorm.DB, competitionID uint) ([]int, error) {
	var count int64
	err := tx.Model(&model.Project{}).Where("competition_id = ? AND is_final = ?", competitionID, true).Count(&count).Error
	if err != nil {
		return nil, err
	}
	var taken []int
	err = tx.Model(&model.Project{}).
		Where("competition_id = ? AND is_final = ? AND defense_order IS NOT NULL", competitionID, true).
		Pluck("defense_order", &taken).Error
	if err != nil {
		return nil, err
	}
	used := make(map[int]bool, len(taken))
	for _, n := range taken {
		used[n] = true
	}
	free := make([]int, 0, count)
	for n := 1; n <= int(count); n++ {
		if !used[n] {
			free = append(free, n)
		}
	}
	return free, nil
}

func finalistOf(tx *gorm.DB, projectID uint) (*model.Project, error) {
	p, err := project.Find(tx, projectID)
	if err != nil {
		return nil, err
	}
	if !p.IsFinal {
		return nil, response.ErrInvalidState.WithTips("项目未进入决赛")
	}
	return p, nil
}

// Draw 队长在抽签窗口内抽取一次答辩顺序，从未被占用的号码中等概率选取
func Draw(ctx context.Context, db *gorm.DB, projectID, userID uint, now time.Time) (order int, err error) {
	defer func() {
		metrics.DefenseDraws.WithLabelValues(sourceDraw, metrics.Result(err)).Inc()
	}()

	p, err := project.Find(db, projectID)
	if err != nil {
		return 0, err
	}
	unlock, err := lockCompetition(ctx, p.CompetitionID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	err = db.Transaction(func(tx *gorm.DB) error {
		p, err := finalistOf(tx, projectID)
		if err != nil {
			return err
		}
		if p.LeaderID != userID {
			return response.ErrForbidden.WithTips("只有队长可以抽取答辩顺序")
		}
		if p.DefenseOrder != nil {
			return response.ErrInvalidState.WithTipsf("已抽取答辩顺序：第 %d 位", *p.DefenseOrder)
		}
		comp, err := competition.Find(tx, p.CompetitionID)
		if err != nil {
			return err
		}
		if !comp.DrawWindowOpen(now) {
			return response.ErrInvalidState.WithTips("不在答辩顺序抽签时间内")
		}

		free, err := freeOrders(tx, p.CompetitionID)
		if err != nil {
			return err
		}
		if len(free) == 0 {
			return response.ErrInvalidState.WithTips("没有可抽取的答辩顺序")
		}
		order = free[rand.IntN(len(free))]

		result := tx.Model(&model.Project{}).
			Where("id = ? AND defense_order IS NULL", projectID).
			Update("defense_order", order)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return response.ErrInvalidState.WithTips("答辩顺序已被修改，请刷新后重试")
		}
		return nil
	})
	if err != nil {
		return 0, response.From(err, response.ErrDatabase)
	}
	return order, nil
}

// Assign 管理员直接指定答辩顺序。目标号码已被占用时，两个项目交换顺序
func Assign(ctx context.Context, db *gorm.DB, projectID uint, order int) (swapped *uint, err error) {
	defer func() {
		metrics.DefenseDraws.WithLabelValues(sourceAdmin, metrics.Result(err)).Inc()
	}()

	p, err := project.Find(db, projectID)
	if err != nil {
		return nil, err
	}
	unlock, err := lockCompetition(ctx, p.CompetitionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = db.Transaction(func(tx *gorm.DB) error {
		p, err := finalistOf(tx, projectID)
		if err != nil {
			return err
		}
		var count int64
		err = tx.Model(&model.Project{}).Where("competition_id = ? AND is_final = ?", p.CompetitionID, true).Count(&count).Error
		if err != nil {
			return err
		}
		if order < 1 || order > int(count) {
			return response.ErrInvalidRequest.WithTipsf("答辩顺序必须在 1 到 %d 之间", count)
		}
		if p.DefenseOrder != nil && *p.DefenseOrder == order {
			return nil
		}

		var holder model.Project
		err = tx.Select("id").
			Where("competition_id = ? AND defense_order = ? AND id <> ?", p.CompetitionID, order, projectID).
			Limit(1).Find(&holder).Error
		if err != nil {
			return err
		}
		// 先腾出目标号码，避免违反唯一索引
		if holder.ID != 0 {
			if err := tx.Model(&model.Project{}).Where("id = ?", holder.ID).Update("defense_order", nil).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&model.Project{}).Where("id = ?", projectID).Update("defense_order", order).Error; err != nil {
			return err
		}
		if holder.ID != 0 {
			swapped = &holder.ID
			if p.DefenseOrder != nil {
				return tx.Model(&model.Project{}).Where("id = ?", holder.ID).Update("defense_order", *p.DefenseOrder).Error
			}
		}
		return nil
	})
	if err != nil {
		return nil, response.From(err, response.ErrDatabase)
	}
	return swapped, nil
}

// Autofill 抽签窗口结束后，按项目 ID 依次为未抽签的入围项目分配最小的空闲号码
func Autofill(ctx context.Context, db *gorm.DB, competitionID uint, now time.Time) (filled int, err error) {
	defer func() {
		metrics.DefenseDraws.WithLabelValues(sourceAutofill, metrics.Result(err)).Inc()
	}()

	comp, err := competition.Find(db, competitionID)
	if err != nil {
		return 0, err
	}
	if !comp.DrawWindowClosed(now) {
		return 0, response.ErrInvalidState.WithTips("抽签尚未结束")
	}
	unlock, err := lockCompetition(ctx, competitionID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	err = db.Transaction(func(tx *gorm.DB) error {
		var pending []uint
		err := tx.Model(&model.Project{}).
			Where("competition_id = ? AND is_final = ? AND defense_order IS NULL", competitionID, true).
			Order("id").Pluck("id", &pending).Error
		if err != nil {
			return err
		}
		free, err := freeOrders(tx, competitionID)
		if err != nil {
			return err
		}
		for i, id := range pending {
			if i >= len(free) {
				break
			}
			if err := tx.Model(&model.Project{}).Where("id = ?", id).Update("defense_order", free[i]).Error; err != nil {
				return err
			}
			filled++
		}
		return nil
	})
	if err != nil {
		return 0, response.From(err, response.ErrDatabase)
	}
	return filled, nil
}

// AutofillClosed 为所有抽签已结束的竞赛补齐答辩顺序，供命令行定时调用
func AutofillClosed(ctx context.Context, db *gorm.DB, now time.Time) (map[uint]int, error) {
	var ids []uint
	err := db.Model(&model.Competition{}).
		Where("defense_order_end IS NOT NULL AND defense_order_end < ?", now).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	out := make(map[uint]int, len(ids))
	for _, id := range ids {
		n, err := Autofill(ctx, db, id, now)
		if err != nil {
			return out, err
		}
		if n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

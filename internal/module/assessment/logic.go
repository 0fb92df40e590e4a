package assessment

import (
	"cmp"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	tracks = []model.Track{model.TrackChallengeCup, model.TrackRedTravel}
	levels = []model.AwardLevel{model.LevelSchool, model.LevelProvincial, model.LevelNational}

	// registeredStatuses 通过学院审核即计入报名数
	registeredStatuses = []model.ReviewStatus{model.StatusCollegeApproved, model.StatusFinalApproved, model.StatusFinalRejected}
)

// TrackReport 单个赛道的计数与得分
type TrackReport struct {
	Registrations      int                 `json:"registrations"`
	Target             *int                `json:"target"`
	School             TierCounts          `json:"school"`
	Provincial         TierCounts          `json:"provincial"`
	National           TierCounts          `json:"national"`
	ParticipationScore decimal.NullDecimal `json:"participation_score"`
	AwardScore         decimal.NullDecimal `json:"award_score"`
	Note               *string             `json:"note"`
}

func (t *TrackReport) level(l model.AwardLevel) *TierCounts {
	switch l {
	case model.LevelProvincial:
		return &t.Provincial
	case model.LevelNational:
		return &t.National
	}
	return &t.School
}

type CollegeReport struct {
	Year         int             `json:"year"`
	College      string          `json:"college"`
	ChallengeCup TrackReport     `json:"challenge_cup"`
	RedTravel    TrackReport     `json:"red_travel"`
	TotalScore   decimal.Decimal `json:"total_score"`
	Remark       *string         `json:"remark"`
	ConfigID     uint            `json:"config_id"`
}

func (r *CollegeReport) track(t model.Track) *TrackReport {
	if t == model.TrackRedTravel {
		return &r.RedTravel
	}
	return &r.ChallengeCup
}

func registrationsKey(t model.Track) string {
	return string(t) + ".registrations"
}

func awardKey(t model.Track, l model.AwardLevel, tier Tier) string {
	return fmt.Sprintf("%s.%s.%s", t, l, tier)
}

// OverrideKeys 全部可以人工修正的计数键
func OverrideKeys() []string {
	var keys []string
	for _, t := range tracks {
		keys = append(keys, registrationsKey(t))
		for _, l := range levels {
			for _, tier := range tiers {
				keys = append(keys, awardKey(t, l, tier))
			}
		}
	}
	return keys
}

type trackConfig struct {
	target        *int
	participation decimal.NullDecimal
	award         decimal.NullDecimal
	note          *string
}

func trackConfigOf(cfg *model.AssessmentConfig, t model.Track) trackConfig {
	if cfg == nil {
		return trackConfig{}
	}
	if t == model.TrackRedTravel {
		return trackConfig{cfg.RedTravelTarget, cfg.RedTravelParticipationScore, cfg.RedTravelAwardScore, cfg.RedTravelNote}
	}
	return trackConfig{cfg.ChallengeCupTarget, cfg.ChallengeCupParticipationScore, cfg.ChallengeCupAwardScore, cfg.ChallengeCupNote}
}

// Compute 在统计计数上应用人工修正并计算得分。
// 计数修正先于得分计算，得分修正再覆盖计算结果，总分修正最后覆盖一切
func Compute(year int, college string, counts map[model.Track]TrackReport, cfg *model.AssessmentConfig) CollegeReport {
	r := CollegeReport{Year: year, College: college}
	var overrides map[string]int
	if cfg != nil {
		overrides = cfg.CountOverrides.Data()
		r.Remark = cfg.Remark
		r.ConfigID = cfg.ID
	}

	total := decimal.Zero
	for _, t := range tracks {
		tr := counts[t]
		tc := trackConfigOf(cfg, t)

		tr.Registrations = resolveCount(overrides, registrationsKey(t), tr.Registrations)
		awards := make(map[model.AwardLevel]TierCounts, len(levels))
		for _, l := range levels {
			lc := tr.level(l)
			for _, tier := range tiers {
				p := lc.ptr(tier)
				*p = resolveCount(overrides, awardKey(t, l, tier), *p)
			}
			awards[l] = *lc
		}

		tr.Target = tc.target
		tr.ParticipationScore = resolve(tc.participation, Participation(tr.Registrations, tc.target))
		tr.AwardScore = resolve(tc.award, decimal.NewNullDecimal(AwardScore(awards)))
		tr.Note = tc.note
		*r.track(t) = tr

		// 未设置目标时参赛得分为空，按 0 计入总分
		for _, part := range []decimal.NullDecimal{tr.ParticipationScore, tr.AwardScore} {
			if part.Valid {
				total = total.Add(part.Decimal)
			}
		}
	}

	r.TotalScore = total
	if cfg != nil && cfg.TotalScore.Valid {
		r.TotalScore = cfg.TotalScore.Decimal
	}
	return r
}

type registrationRow struct {
	College         string
	CompetitionType string
	N               int
}

type awardRow struct {
	College         string
	CompetitionType string
	Level           model.AwardLevel
	AwardName       string
}

// joinCompetition 只统计未删除的、指定年度的竞赛
func joinCompetition(db *gorm.DB, year int) *gorm.DB {
	return db.Joins("JOIN competition ON competition.id = project.competition_id AND competition.deleted_at IS NULL").
		Where("competition.year = ?", year)
}

// collect 按 (推送学院, 赛道) 汇总报名数与各级奖项数
func collect(db *gorm.DB, year int) (map[string]map[model.Track]TrackReport, error) {
	out := map[string]map[model.Track]TrackReport{}
	get := func(college, competitionType string) (*TrackReport, model.Track, bool) {
		t := model.TrackOf(competitionType)
		if t == model.TrackNone {
			return nil, t, false
		}
		if out[college] == nil {
			out[college] = map[model.Track]TrackReport{}
		}
		tr := out[college][t]
		return &tr, t, true
	}

	var regs []registrationRow
	err := joinCompetition(db.Table("project"), year).
		Select("project.push_college AS college, competition.competition_type AS competition_type, COUNT(*) AS n").
		Where("project.status IN ?", registeredStatuses).
		Group("project.push_college, competition.competition_type").
		Scan(&regs).Error
	if err != nil {
		return nil, err
	}
	for _, row := range regs {
		if tr, t, ok := get(row.College, row.CompetitionType); ok {
			tr.Registrations += row.N
			out[row.College][t] = *tr
		}
	}

	var awards []awardRow
	err = joinCompetition(db.Table("award").Joins("JOIN project ON project.id = award.project_id"), year).
		Select("project.push_college AS college, competition.competition_type AS competition_type, ? AS level, award.award_name AS award_name", model.LevelSchool).
		Scan(&awards).Error
	if err != nil {
		return nil, err
	}
	var externals []awardRow
	err = joinCompetition(db.Table("external_award").Joins("JOIN project ON project.id = external_award.project_id"), year).
		Select("project.push_college AS college, competition.competition_type AS competition_type, external_award.level AS level, external_award.award_name AS award_name").
		Scan(&externals).Error
	if err != nil {
		return nil, err
	}

	for _, row := range append(awards, externals...) {
		tier, ok := TierOf(row.AwardName)
		if !ok {
			continue
		}
		if tr, t, ok := get(row.College, row.CompetitionType); ok {
			tr.level(row.Level).Add(tier)
			out[row.College][t] = *tr
		}
	}
	return out, nil
}

// collegeOrder 按学院列表顺序排序，列表之外的排在最后
func collegeOrder(a, b string) int {
	ia, ib := slices.Index(model.Colleges, a), slices.Index(model.Colleges, b)
	if ia < 0 {
		ia = len(model.Colleges)
	}
	if ib < 0 {
		ib = len(model.Colleges)
	}
	if c := cmp.Compare(ia, ib); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// Report 生成某一年度各学院的评估结果，college 非空时只返回该学院
func Report(db *gorm.DB, year int, college string) ([]CollegeReport, error) {
	counts, err := collect(db, year)
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	var configs []model.AssessmentConfig
	if err := db.Where("year = ?", year).Find(&configs).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	byCollege := make(map[string]*model.AssessmentConfig, len(configs))
	for i := range configs {
		byCollege[configs[i].College] = &configs[i]
	}

	names := make([]string, 0, len(counts)+len(configs))
	for name := range counts {
		names = append(names, name)
	}
	for name := range byCollege {
		if _, ok := counts[name]; !ok {
			names = append(names, name)
		}
	}
	slices.SortFunc(names, collegeOrder)

	reports := make([]CollegeReport, 0, len(names))
	for _, name := range names {
		if college != "" && name != college {
			continue
		}
		reports = append(reports, Compute(year, name, counts[name], byCollege[name]))
	}
	return reports, nil
}

type ConfigReq struct {
	Year                           int                 `json:"year" binding:"required,min=2000,max=2100"`
	College                        string              `json:"college" binding:"required,college"`
	ChallengeCupTarget             *int                `json:"challenge_cup_target" binding:"omitempty,min=0"`
	RedTravelTarget                *int                `json:"red_travel_target" binding:"omitempty,min=0"`
	CountOverrides                 map[string]int      `json:"count_overrides"`
	ChallengeCupParticipationScore decimal.NullDecimal `json:"challenge_cup_participation_score"`
	ChallengeCupAwardScore         decimal.NullDecimal `json:"challenge_cup_award_score"`
	RedTravelParticipationScore    decimal.NullDecimal `json:"red_travel_participation_score"`
	RedTravelAwardScore            decimal.NullDecimal `json:"red_travel_award_score"`
	TotalScore                     decimal.NullDecimal `json:"total_score"`
	ChallengeCupNote               *string             `json:"challenge_cup_note"`
	RedTravelNote                  *string             `json:"red_travel_note"`
	Remark                         *string             `json:"remark"`
}

func (r *ConfigReq) check() error {
	valid := OverrideKeys()
	for k, v := range r.CountOverrides {
		if !slices.Contains(valid, k) {
			return response.ErrInvalidRequest.WithTipsf("未知的修正项：%s", k)
		}
		if v < 0 {
			return response.ErrInvalidRequest.WithTipsf("修正项 %s 不能为负数", k)
		}
	}
	scores := []decimal.NullDecimal{
		r.ChallengeCupParticipationScore, r.ChallengeCupAwardScore,
		r.RedTravelParticipationScore, r.RedTravelAwardScore, r.TotalScore,
	}
	for _, s := range scores {
		if s.Valid && s.Decimal.IsNegative() {
			return response.ErrInvalidRequest.WithTips("得分不能为负数")
		}
	}
	return nil
}

// SaveConfig 按 (年度, 学院) upsert，未填写的字段清空为沿用统计值
func SaveConfig(db *gorm.DB, req ConfigReq) (*model.AssessmentConfig, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	overrides := req.CountOverrides
	if overrides == nil {
		overrides = map[string]int{}
	}
	cfg := &model.AssessmentConfig{
		Year:                           req.Year,
		College:                        req.College,
		ChallengeCupTarget:             req.ChallengeCupTarget,
		RedTravelTarget:                req.RedTravelTarget,
		CountOverrides:                 datatypes.NewJSONType(overrides),
		ChallengeCupParticipationScore: req.ChallengeCupParticipationScore,
		ChallengeCupAwardScore:         req.ChallengeCupAwardScore,
		RedTravelParticipationScore:    req.RedTravelParticipationScore,
		RedTravelAwardScore:            req.RedTravelAwardScore,
		TotalScore:                     req.TotalScore,
		ChallengeCupNote:               req.ChallengeCupNote,
		RedTravelNote:                  req.RedTravelNote,
		Remark:                         req.Remark,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "college"}},
		UpdateAll: true,
	}).Create(cfg).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}

	var saved model.AssessmentConfig
	if err := db.Where("year = ? AND college = ?", req.Year, req.College).First(&saved).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &saved, nil
}

func ListConfigs(db *gorm.DB, year int) ([]model.AssessmentConfig, error) {
	configs := []model.AssessmentConfig{}
	query := db.Order("year DESC, id")
	if year > 0 {
		query = query.Where("year = ?", year)
	}
	if err := query.Find(&configs).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return configs, nil
}

func DeleteConfig(db *gorm.DB, id uint) error {
	result := db.Delete(&model.AssessmentConfig{}, id)
	if result.Error != nil {
		return response.ErrDatabase.WithOrigin(result.Error)
	}
	if result.RowsAffected == 0 {
		return response.ErrNotFound.WithTips("评估配置不存在")
	}
	return nil
}

package assessment

import (
	"bytes"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/test"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

func TestMain(m *testing.M) {
	selfInit()
	m.Run()
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func null(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func intPtr(v int) *int { return &v }

func TestTierOf(t *testing.T) {
	cases := map[string]Tier{
		"特等奖":   TierGold,
		"省级金奖":  TierGold,
		"一等奖":   TierGold,
		"国家级银奖": TierSilver,
		"二等奖":   TierSilver,
		"铜奖":    TierBronze,
		"校级三等奖": TierBronze,
	}
	for name, want := range cases {
		got, ok := TierOf(name)
		require.True(t, ok, name)
		require.Equal(t, want, got, name)
	}
	_, ok := TierOf("优秀奖")
	require.False(t, ok)
}

func TestParticipation(t *testing.T) {
	require.False(t, Participation(5, nil).Valid)
	require.False(t, Participation(5, intPtr(0)).Valid)
	require.True(t, dec("1").Equal(Participation(5, intPtr(10)).Decimal))
	require.True(t, dec("2").Equal(Participation(30, intPtr(10)).Decimal))
	third := Participation(1, intPtr(3)).Decimal
	require.True(t, dec("2").Div(dec("3")).Equal(third))
	require.True(t, third.GreaterThan(dec("0.666")) && third.LessThan(dec("0.667")))
	require.Equal(t, "0.67", scoreText(decimal.NewNullDecimal(third)))
	require.True(t, dec("0").Equal(Participation(0, intPtr(3)).Decimal))
}

func TestAwardScore(t *testing.T) {
	cases := []struct {
		name   string
		awards map[model.AwardLevel]TierCounts
		want   string
	}{
		{"none", nil, "0"},
		{"school bronze", map[model.AwardLevel]TierCounts{model.LevelSchool: {Bronze: 4}}, "0.3"},
		{"school best tier", map[model.AwardLevel]TierCounts{model.LevelSchool: {Gold: 1, Silver: 3}}, "1"},
		{"provincial silver", map[model.AwardLevel]TierCounts{model.LevelSchool: {Gold: 2}, model.LevelProvincial: {Silver: 1}}, "2"},
		{"national bronze", map[model.AwardLevel]TierCounts{model.LevelNational: {Bronze: 1}}, "3"},
		{"capped", map[model.AwardLevel]TierCounts{model.LevelProvincial: {Gold: 5}, model.LevelNational: {Gold: 2}}, "3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AwardScore(tc.awards)
			require.True(t, dec(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestResolve(t *testing.T) {
	computed := null("1.5")
	require.Equal(t, computed, resolve(decimal.NullDecimal{}, computed))
	require.Equal(t, null("0.2"), resolve(null("0.2"), computed))
	require.Equal(t, null("0"), resolve(null("0"), decimal.NullDecimal{}))

	require.Equal(t, 3, resolveCount(nil, "challenge_cup.registrations", 3))
	require.Equal(t, 0, resolveCount(map[string]int{"challenge_cup.registrations": 0}, "challenge_cup.registrations", 3))
}

func TestCompute(t *testing.T) {
	counts := map[model.Track]TrackReport{
		model.TrackChallengeCup: {Registrations: 4, School: TierCounts{Silver: 1}},
		model.TrackRedTravel:    {Registrations: 2, Provincial: TierCounts{Bronze: 1}},
	}

	t.Run("computed", func(t *testing.T) {
		cfg := &model.AssessmentConfig{ChallengeCupTarget: intPtr(8)}
		got := Compute(2025, test.InfoCollege, counts, cfg)
		want := CollegeReport{
			Year:    2025,
			College: test.InfoCollege,
			ChallengeCup: TrackReport{
				Registrations:      4,
				Target:             intPtr(8),
				School:             TierCounts{Silver: 1},
				ParticipationScore: null("1"),
				AwardScore:         null("0.6"),
			},
			RedTravel: TrackReport{
				Registrations: 2,
				Provincial:    TierCounts{Bronze: 1},
				AwardScore:    null("1"),
			},
			TotalScore: dec("2.6"),
		}
		if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
			t.Fatalf("report mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		note := "人工核对"
		cfg := &model.AssessmentConfig{
			ChallengeCupTarget: intPtr(8),
			RedTravelTarget:    intPtr(1),
			CountOverrides: datatypes.NewJSONType(map[string]int{
				"challenge_cup.registrations": 8,
				"red_travel.national.gold":    1,
				"challenge_cup.school.silver": 0,
			}),
			ChallengeCupAwardScore: null("0.5"),
			RedTravelNote:          &note,
		}
		got := Compute(2025, test.InfoCollege, counts, cfg)
		require.Equal(t, 8, got.ChallengeCup.Registrations)
		require.True(t, dec("2").Equal(got.ChallengeCup.ParticipationScore.Decimal))
		require.True(t, dec("0.5").Equal(got.ChallengeCup.AwardScore.Decimal))
		require.Equal(t, 0, got.ChallengeCup.School.Silver)
		require.Equal(t, 1, got.RedTravel.National.Gold)
		require.True(t, dec("3").Equal(got.RedTravel.AwardScore.Decimal))
		require.True(t, dec("2").Equal(got.RedTravel.ParticipationScore.Decimal))
		require.Equal(t, &note, got.RedTravel.Note)
		require.True(t, dec("7.5").Equal(got.TotalScore), "got %s", got.TotalScore)

		cfg.TotalScore = null("9")
		got = Compute(2025, test.InfoCollege, counts, cfg)
		require.True(t, dec("9").Equal(got.TotalScore))
	})

	// 输入计数不被修改
	require.Equal(t, 4, counts[model.TrackChallengeCup].Registrations)
}

func TestReport(t *testing.T) {
	db := test.NewDB(t)
	cup := test.CreateCompetition(t, db, test.WithYear(2025))
	startup := test.CreateCompetition(t, db, test.WithYear(2025), test.WithType(model.CompetitionStartupPlan))
	red := test.CreateCompetition(t, db, test.WithYear(2025), test.WithType(model.CompetitionRedTravel))
	older := test.CreateCompetition(t, db, test.WithYear(2024))
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)

	test.CreateProject(t, db, cup, leader, model.StatusCollegeApproved, test.InfoCollege)
	test.CreateProject(t, db, startup, leader, model.StatusFinalRejected, test.InfoCollege)
	test.CreateProject(t, db, cup, leader, model.StatusSubmitted, test.InfoCollege)
	test.CreateProject(t, db, older, leader, model.StatusFinalApproved, test.InfoCollege)
	test.CreateProject(t, db, cup, leader, model.StatusCollegeApproved, test.MechCollege)

	redProject := test.CreateProject(t, db, red, leader, model.StatusFinalApproved, test.InfoCollege)
	require.NoError(t, db.Create(&model.Award{ProjectID: redProject.ID, AwardName: "校级一等奖"}).Error)
	require.NoError(t, db.Create(&model.ExternalAward{ProjectID: redProject.ID, Level: model.LevelProvincial, AwardName: "省赛银奖"}).Error)
	require.NoError(t, db.Create(&model.ExternalAward{ProjectID: redProject.ID, Level: model.LevelProvincial, AwardName: "优秀组织奖"}).Error)

	_, err := SaveConfig(db, ConfigReq{Year: 2025, College: test.InfoCollege, ChallengeCupTarget: intPtr(4)})
	require.NoError(t, err)
	_, err = SaveConfig(db, ConfigReq{Year: 2025, College: "人文学院", Remark: new(string)})
	require.NoError(t, err)

	reports, err := Report(db, 2025, "")
	require.NoError(t, err)
	require.Len(t, reports, 3)
	// 按学院列表顺序排列
	require.Equal(t, []string{test.MechCollege, test.InfoCollege, "人文学院"},
		[]string{reports[0].College, reports[1].College, reports[2].College})

	info := reports[1]
	require.Equal(t, 2, info.ChallengeCup.Registrations)
	require.True(t, dec("1").Equal(info.ChallengeCup.ParticipationScore.Decimal))
	require.Equal(t, 1, info.RedTravel.Registrations)
	require.Equal(t, TierCounts{Gold: 1}, info.RedTravel.School)
	require.Equal(t, TierCounts{Silver: 1}, info.RedTravel.Provincial)
	require.True(t, dec("2").Equal(info.RedTravel.AwardScore.Decimal))
	require.True(t, dec("3").Equal(info.TotalScore))

	only, err := Report(db, 2025, test.MechCollege)
	require.NoError(t, err)
	require.Len(t, only, 1)
	require.Equal(t, 1, only[0].ChallengeCup.Registrations)

	data, err := Export(reports)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	rows, err := f.GetRows("学院评估")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, test.MechCollege, rows[1][1])
}

func TestSaveConfig(t *testing.T) {
	db := test.NewDB(t)

	_, err := SaveConfig(db, ConfigReq{Year: 2025, College: test.InfoCollege, CountOverrides: map[string]int{"challenge_cup.city.gold": 1}})
	test.ErrorIs(t, response.ErrInvalidRequest, err)
	_, err = SaveConfig(db, ConfigReq{Year: 2025, College: test.InfoCollege, TotalScore: null("-1")})
	test.ErrorIs(t, response.ErrInvalidRequest, err)

	first, err := SaveConfig(db, ConfigReq{Year: 2025, College: test.InfoCollege, ChallengeCupTarget: intPtr(5),
		CountOverrides: map[string]int{"red_travel.registrations": 3}})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"red_travel.registrations": 3}, first.CountOverrides.Data())

	// 同一 (年度, 学院) 再次保存覆盖原记录
	second, err := SaveConfig(db, ConfigReq{Year: 2025, College: test.InfoCollege, RedTravelTarget: intPtr(2)})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Nil(t, second.ChallengeCupTarget)
	require.Equal(t, 2, *second.RedTravelTarget)
	require.Empty(t, second.CountOverrides.Data())

	configs, err := ListConfigs(db, 2025)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	require.NoError(t, DeleteConfig(db, second.ID))
	test.ErrorIs(t, response.ErrNotFound, DeleteConfig(db, second.ID))
}

func TestReportHandlerScopesCollegeAdmin(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db, test.WithYear(2025))
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	test.CreateProject(t, db, comp, leader, model.StatusCollegeApproved, test.InfoCollege)
	test.CreateProject(t, db, comp, leader, model.StatusCollegeApproved, test.MechCollege)
	admin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.MechCollege)

	resp := test.DoRequest(t, GetReport, nil, test.AsUser(test.Claims(admin, model.RoleCollegeAdmin)),
		test.WithMethod("GET"), test.WithQuery("year", "2025"))
	test.NoError(t, resp)
	reports := test.DecodeData[[]CollegeReport](t, resp)
	require.Len(t, reports, 1)
	require.Equal(t, test.MechCollege, reports[0].College)

	resp = test.DoRequest(t, GetReport, nil, test.AsUser(test.Claims(admin, model.RoleCollegeAdmin)), test.WithMethod("GET"))
	test.ErrorEqual(t, response.ErrInvalidRequest, resp)
}

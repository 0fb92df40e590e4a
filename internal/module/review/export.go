package review

import (
	"competition-portal/internal/model"
	"competition-portal/tools"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type projectRow struct {
	ID              uint       `excel:"项目ID"`
	Competition     string     `excel:"竞赛"`
	Title           string     `excel:"项目名称"`
	Team            string     `excel:"队伍"`
	Status          string     `excel:"审核状态"`
	PushCollege     string     `excel:"推送学院"`
	Category        string     `excel:"组别/类别/领域"`
	Leader          string     `excel:"队长"`
	LeaderWorkID    string     `excel:"队长学号"`
	Members         string     `excel:"团队成员"`
	Instructor      string     `excel:"指导老师"`
	InstructorPhone string     `excel:"指导老师电话"`
	SubmittedAt     *time.Time `excel:"提交时间"`
	CollegeComment  string     `excel:"学院审核意见"`
	FinalComment    string     `excel:"学校审核意见"`
	IsFinal         string     `excel:"进入决赛"`
	DefenseOrder    *int       `excel:"答辩顺序"`
	Award           string     `excel:"奖项"`
}

type memberRow struct {
	ProjectID uint   `excel:"项目ID"`
	Title     string `excel:"项目名称"`
	Order     int    `excel:"顺位"`
	Name      string `excel:"姓名"`
	WorkID    string `excel:"学号"`
	College   string `excel:"学院"`
	Phone     string `excel:"联系方式"`
	Confirmed string `excel:"已确认"`
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

// ExportProjects 生成项目与成员两个工作表
func ExportProjects(db *gorm.DB, projects []model.Project) ([]byte, error) {
	ids := make([]uint, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	var members []model.ProjectMember
	if len(ids) > 0 {
		if err := db.Where("project_id IN ?", ids).Order("project_id, member_order").Find(&members).Error; err != nil {
			return nil, err
		}
	}
	byProject := map[uint][]model.ProjectMember{}
	for _, m := range members {
		byProject[m.ProjectID] = append(byProject[m.ProjectID], m)
	}

	rows := make([]projectRow, 0, len(projects))
	memberRows := make([]memberRow, 0, len(members))
	for _, p := range projects {
		row := projectRow{
			ID:              p.ID,
			Title:           p.Title,
			Status:          p.Status.Label(),
			PushCollege:     p.PushCollege,
			Category:        firstNonEmpty(p.Category, p.ProjectType, p.ProjectField),
			Instructor:      p.InstructorName,
			InstructorPhone: p.InstructorPhone,
			SubmittedAt:     p.SubmittedAt,
			CollegeComment:  p.CollegeReviewComment,
			FinalComment:    p.FinalReviewComment,
			IsFinal:         yesNo(p.IsFinal),
			DefenseOrder:    p.DefenseOrder,
		}
		if p.Competition != nil {
			row.Competition = p.Competition.Name
		}
		if p.Team != nil {
			row.Team = p.Team.Name
			if p.Team.Leader != nil {
				row.Leader = p.Team.Leader.RealName
				if p.Team.Leader.WorkID != nil {
					row.LeaderWorkID = *p.Team.Leader.WorkID
				}
			}
		}
		if p.Award != nil {
			row.Award = p.Award.AwardName
		}

		names := make([]string, 0, len(byProject[p.ID]))
		for _, m := range byProject[p.ID] {
			names = append(names, fmt.Sprintf("%s(%s)", m.Name, m.WorkID))
			memberRows = append(memberRows, memberRow{
				ProjectID: p.ID,
				Title:     p.Title,
				Order:     m.Order,
				Name:      m.Name,
				WorkID:    m.WorkID,
				College:   m.College,
				Phone:     m.Phone,
				Confirmed: yesNo(m.IsConfirmed),
			})
		}
		row.Members = strings.Join(names, "、")
		rows = append(rows, row)
	}

	return tools.ExcelBytes(
		tools.Sheet{Name: "项目", Rows: rows},
		tools.Sheet{Name: "成员", Rows: memberRows},
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

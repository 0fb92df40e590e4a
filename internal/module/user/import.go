package user

import (
	"bytes"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// StudentRow 名册中的一行
type StudentRow struct {
	WorkID   string
	RealName string
	College  string
	Phone    string
	Password string
}

// ImportResult 导入汇总，Failed 记录行号与原因
type ImportResult struct {
	Created int           `json:"created"`
	Reset   int           `json:"reset"`
	Failed  []ImportError `json:"failed"`
}

type ImportError struct {
	Row    int    `json:"row"`
	WorkID string `json:"work_id"`
	Reason string `json:"reason"`
}

var rosterHeaders = map[string]string{
	"学工号":  "work_id",
	"学号":   "work_id",
	"姓名":   "real_name",
	"学院":   "college",
	"联系方式": "phone",
	"手机号":  "phone",
	"密码":   "password",
}

// ParseRoster 读取第一个工作表，按表头定位列，学工号列必须存在
func ParseRoster(r io.Reader) ([]StudentRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "读取名册失败")
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "无法解析 xlsx 文件")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("名册中没有工作表")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "读取工作表失败")
	}
	if len(rows) == 0 {
		return nil, errors.New("名册为空")
	}

	columns := map[string]int{}
	for i, h := range rows[0] {
		if key, ok := rosterHeaders[strings.TrimSpace(h)]; ok {
			if _, seen := columns[key]; !seen {
				columns[key] = i
			}
		}
	}
	if _, ok := columns["work_id"]; !ok {
		return nil, errors.New("缺少“学工号”列")
	}

	cell := func(row []string, key string) string {
		i, ok := columns[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]StudentRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, StudentRow{
			WorkID:   cell(row, "work_id"),
			RealName: cell(row, "real_name"),
			College:  cell(row, "college"),
			Phone:    cell(row, "phone"),
			Password: cell(row, "password"),
		})
	}
	return out, nil
}

// ImportRoster 逐行创建学生或重置密码，单行失败不影响其他行。
// 行内未填写密码时使用 defaultPassword
func ImportRoster(db *gorm.DB, r io.Reader, defaultPassword string) (*ImportResult, error) {
	rows, err := ParseRoster(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Failed: []ImportError{}}
	for i, row := range rows {
		line := i + 2
		if row.WorkID == "" {
			continue
		}
		if row.College != "" && !model.IsCollege(row.College) {
			result.Failed = append(result.Failed, ImportError{Row: line, WorkID: row.WorkID, Reason: "未知学院 " + row.College})
			continue
		}
		password := row.Password
		if password == "" {
			password = defaultPassword
		}
		if password == "" {
			result.Failed = append(result.Failed, ImportError{Row: line, WorkID: row.WorkID, Reason: "未提供密码"})
			continue
		}

		created, err := UpsertStudent(db, row, password)
		if err != nil {
			result.Failed = append(result.Failed, ImportError{Row: line, WorkID: row.WorkID, Reason: response.From(err, response.ErrDatabase).Message})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Reset++
		}
	}
	return result, nil
}

package main

import (
	"competition-portal/cmd/server"
	"competition-portal/internal/global/database"
	"competition-portal/internal/model"
	"competition-portal/internal/module/final"
	"competition-portal/internal/module/user"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "competition-portal",
		Usage: "校园竞赛管理平台",
		// 不带子命令时直接启动服务
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "启动 HTTP 服务",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "自动迁移数据库表结构",
				Action: func(c *cli.Context) error {
					// database.Init 内部完成迁移
					server.Setup()
					fmt.Println("数据库迁移完成")
					return nil
				},
			},
			newUserCommand(),
			newFinalCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	server.Init()
	server.Run()
	return nil
}

func newUserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "账号管理",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "创建账号，通常用于初始化校级管理员",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "role", Value: string(model.RoleSchoolAdmin), Usage: "student / college_admin / school_admin / judge"},
					&cli.StringFlag{Name: "work-id", Usage: "学工号"},
					&cli.StringFlag{Name: "username", Usage: "用户名，评委可只填用户名"},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "name", Required: true, Usage: "真实姓名"},
					&cli.StringFlag{Name: "college"},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(c *cli.Context) error {
					server.Init()
					req := user.CreateUserReq{
						Role:     model.Role(c.String("role")),
						WorkID:   c.String("work-id"),
						Username: c.String("username"),
						Email:    c.String("email"),
						Password: c.String("password"),
						RealName: c.String("name"),
						College:  c.String("college"),
					}
					if err := binding.Validator.ValidateStruct(req); err != nil {
						return err
					}
					u, err := user.CreateAccount(database.DB, req)
					if err != nil {
						return err
					}
					fmt.Printf("已创建账号 id=%d role=%s\n", u.ID, u.Role)
					return nil
				},
			},
			{
				Name:      "import",
				Usage:     "从 Excel 花名册导入学生",
				ArgsUsage: "<roster.xlsx>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "default-password", Value: "123456", Usage: "花名册未填写密码时使用"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("需要指定花名册文件", 1)
					}
					f, err := os.Open(c.Args().First())
					if err != nil {
						return err
					}
					defer f.Close()

					server.Init()
					result, err := user.ImportRoster(database.DB, f, c.String("default-password"))
					if err != nil {
						return err
					}
					fmt.Printf("新建 %d 人，重置 %d 人，失败 %d 行\n", result.Created, result.Reset, len(result.Failed))
					for _, e := range result.Failed {
						fmt.Printf("  第 %d 行 %s: %s\n", e.Row, e.WorkID, e.Reason)
					}
					return nil
				},
			},
		},
	}
}

func newFinalCommand() *cli.Command {
	return &cli.Command{
		Name:  "final",
		Usage: "决赛相关维护任务",
		Subcommands: []*cli.Command{
			{
				Name:  "autofill",
				Usage: "为抽签已截止的竞赛补齐答辩顺序，可由 cron 定时执行",
				Action: func(c *cli.Context) error {
					server.Init()
					filled, err := final.AutofillClosed(c.Context, database.DB, time.Now())
					if err != nil {
						return err
					}
					for cid, n := range filled {
						fmt.Printf("竞赛 %d 补齐 %d 个\n", cid, n)
					}
					return nil
				},
			},
		},
	}
}

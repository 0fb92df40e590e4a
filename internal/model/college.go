package model

import "slices"

var Colleges = []string{
	"土木工程学院",
	"机械工程学院",
	"电气工程学院",
	"信息科学与技术学院",
	"计算机与人工智能学院",
	"集成电路科学与工程学院",
	"经济管理学院",
	"外国语学院",
	"交通运输与物流学院",
	"材料科学与工程学院",
	"地球科学与工程学院",
	"环境科学与工程学院",
	"建筑学院",
	"设计艺术学院",
	"物理科学与技术学院",
	"人文学院",
	"公共管理学院",
	"医学院",
	"生命科学与工程学院",
	"化学学院",
	"力学与航空航天学院",
	"数学学院",
	"马克思主义学院",
	"心理研究与咨询中心",
	"轨道交通运载系统全国重点实验室",
	"利兹学院",
	"茅以升学院",
	"智慧城市与交通学院",
	"轨道交通国家实验室",
	"天佑铁道学院",
	"国家卓越工程师学院",
	"继续教育学院",
	"宜宾研究院",
	"唐山研究院",
	"信息化研究院",
	"智能控制与仿真工程研究中心",
	"智能检测研究院",
	"人工智能研究院",
	"网络空间安全研究院",
}

func IsCollege(name string) bool {
	return slices.Contains(Colleges, name)
}

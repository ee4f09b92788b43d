package i18n

// ZhCNMessages 简体中文消息目录
// ZhCNMessages Simplified Chinese message catalog
var ZhCNMessages = map[string]string{
	// TUI - 面板标题
	"panel.projects": "项目",
	"panel.tasks":    "任务",
	"panel.subtasks": "子任务",
	"panel.logs":     "日志",
	"panel.config":   "项目配置",
	"panel.manual":   "手动提示",

	// TUI - 空状态
	"empty.projects": "暂无项目",
	"empty.tasks":    "暂无任务。",
	"empty.subtasks": "暂无子任务。",
	"empty.project":  "请选择项目",

	// TUI - 状态栏
	"status.ready":        "就绪",
	"status.connected":    "已连接",
	"status.disconnected": "未连接",
	"status.erroring":     "出错",
	"status.enabled":      "已启用",
	"status.disabled":     "已停用",
	"status.tokens":       "约 %d tokens",

	// TUI - 输入
	"input.placeholder":   "为 %s 输入提示...",
	"input.no_project":    "请先选择项目",
	"input.mode_new":      "新任务",
	"input.mode_existing": "已有任务 #%d",
	"input.scheduling":    "调度中...",

	// TUI - 快捷键提示
	"keys.tab":       "tab 切换焦点",
	"keys.enter":     "回车 选择",
	"keys.refresh":   "r 刷新",
	"keys.stop":      "s 停止",
	"keys.restart":   "R 重启",
	"keys.delete":    "d 删除",
	"keys.archive":   "a 归档",
	"keys.manual":    "n 提示",
	"keys.toggle":    "e 启用/停用",
	"keys.config":    "c 配置",
	"keys.quit":      "q 退出",
	"keys.reconnect": "L 重连日志",
	"keys.model":     "m 下一个模型",
	"keys.prompt":    "回车 发送 · ctrl+t 切换模式 · esc 取消",

	// 配置面板
	"config.default_model": "默认模型",
	"config.branch":        "基础分支",
	"config.no_models":     "未配置模型目录",
	"config.apply":         "回车 应用 · esc 关闭",

	// 日志
	"logs.placeholder":      "选择一个任务或运行中/等待中的子任务以查看日志。",
	"logs.unavailable":      "日志流不可用。",
	"logs.ended":            "日志流已结束或不可用。",
	"logs.restricted":       "仅 %s 状态的子任务可查看日志。",
	"logs.project_disabled": "项目已停用，不推送日志。",
	"logs.archived":         "日志已归档：%s",

	// 错误
	"error.projects":       "加载项目失败。是否已登录？",
	"error.not_allowed":    "任务状态为 %[2]s 时不允许执行 %[1]s",
	"error.no_task":        "请选择要继续的任务",
	"error.empty_prompt":   "提示为空",
	"error.create_subtask": "创建子任务失败",

	// 控制台
	"console.welcome":  "thatmon 控制台已连接到 %s",
	"console.commands": "命令：",
	"console.unknown":  "未知命令：%s",
	"console.bye":      "再见",
}

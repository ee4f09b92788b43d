package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// UI - Panel titles
	"panel.projects": "Projects",
	"panel.tasks":    "Tasks",
	"panel.subtasks": "Subtasks",
	"panel.logs":     "Logs",
	"panel.config":   "Project config",
	"panel.manual":   "Manual prompt",

	// UI - Empty states
	"empty.projects": "No projects",
	"empty.tasks":    "No tasks yet.",
	"empty.subtasks": "No subtasks yet.",
	"empty.project":  "Select a project",

	// UI - Status bar
	"status.ready":        "Ready",
	"status.connected":    "live",
	"status.disconnected": "offline",
	"status.erroring":     "error",
	"status.enabled":      "Enabled",
	"status.disabled":     "Disabled",
	"status.tokens":       "~%d tokens",

	// UI - Input
	"input.placeholder":   "Prompt for %s...",
	"input.no_project":    "Select a project first",
	"input.mode_new":      "New task",
	"input.mode_existing": "Existing task #%d",
	"input.scheduling":    "Scheduling...",

	// UI - Keybindings
	"keys.tab":       "tab focus",
	"keys.enter":     "enter select",
	"keys.refresh":   "r refresh",
	"keys.stop":      "s stop",
	"keys.restart":   "R restart",
	"keys.delete":    "d delete",
	"keys.archive":   "a archive",
	"keys.manual":    "n prompt",
	"keys.toggle":    "e enable/disable",
	"keys.config":    "c config",
	"keys.quit":      "q quit",
	"keys.reconnect": "L reconnect logs",
	"keys.model":     "m next model",
	"keys.prompt":    "enter send · ctrl+t switch mode · esc cancel",

	// Config pane
	"config.default_model": "Default model",
	"config.branch":        "Base branch",
	"config.no_models":     "Model catalog not configured",
	"config.apply":         "enter apply · esc close",

	// Logs
	"logs.placeholder":      "Select a task or a running/pending subtask to view logs.",
	"logs.unavailable":      "Log stream unavailable.",
	"logs.ended":            "Log stream ended or unavailable.",
	"logs.restricted":       "Logs available only for %s subtasks.",
	"logs.project_disabled": "Project is disabled; logs are not streamed.",
	"logs.archived":         "Logs archived: %s",

	// Errors
	"error.projects":       "Failed to load projects. Are you authenticated?",
	"error.not_allowed":    "Action %s is not allowed while task is %s",
	"error.no_task":        "Pick a task to continue",
	"error.empty_prompt":   "Prompt is empty",
	"error.create_subtask": "Failed to create subtask",

	// Console
	"console.welcome":  "thatmon console connected to %s",
	"console.commands": "commands:",
	"console.unknown":  "unknown command: %s",
	"console.bye":      "bye",
}

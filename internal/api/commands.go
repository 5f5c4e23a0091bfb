package api

// Command names understood by the Harbor service.
const (
	CmdGetRules     = "get_rules"
	CmdCreateRule   = "create_rule"
	CmdUpdateRule   = "update_rule"
	CmdDeleteRule   = "delete_rule"
	CmdToggleRule   = "toggle_rule"
	CmdReorderRules = "reorder_rules"

	CmdGetDownloadDir  = "get_download_dir"
	CmdResetToDefaults = "reset_to_defaults"

	CmdGetActivityLogs   = "get_activity_logs"
	CmdGetActivityStats  = "get_activity_stats"
	CmdClearActivityLogs = "clear_activity_logs"

	CmdGetServiceStatus   = "get_service_status"
	CmdStartService       = "start_service"
	CmdStopService        = "stop_service"
	CmdTriggerOrganizeNow = "trigger_organize_now"
	CmdGetStartupEnabled  = "get_startup_enabled"
	CmdSetStartupEnabled  = "set_startup_enabled"
	CmdReloadConfig       = "reload_config"

	CmdGetTutorialCompleted   = "get_tutorial_completed"
	CmdSetTutorialCompleted   = "set_tutorial_completed"
	CmdGetCheckUpdates        = "get_check_updates"
	CmdSetCheckUpdates        = "set_check_updates"
	CmdGetLastNotifiedVersion = "get_last_notified_version"
	CmdSetLastNotifiedVersion = "set_last_notified_version"
)

type ruleNameArgs struct {
	RuleName string `json:"ruleName"`
}

type toggleRuleArgs struct {
	RuleName string `json:"ruleName"`
	Enabled  bool   `json:"enabled"`
}

type reorderArgs struct {
	RuleNames []string `json:"ruleNames"`
}

type pageArgs struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type enabledArgs struct {
	Enabled bool `json:"enabled"`
}

type completedArgs struct {
	Completed bool `json:"completed"`
}

type versionArgs struct {
	Version string `json:"version"`
}

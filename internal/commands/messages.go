package commands

// Rejection messages. They are templates rendered against the invocation.
const (
	MsgTooFewArgs        = "Not enough arguments! Try using @name/help %c"
	MsgTooManyArgs       = "Too many arguments! Try using @name/help %c"
	MsgTargetOffline     = "%gt either is not online right now or doesn't exist."
	MsgNoRecords         = "No records were found for %gt"
	MsgOperatorForOthers = "You must be an OP to use this command on someone else"
	MsgOperatorRequired  = "You must be an OP to use this command"
	MsgPlayerOnly        = "This command is only usable as a player"
	MsgConsoleOnly       = "This command is only usable by the console"
	MsgMisconfigured     = "An unexpected error occured. Try updating the server's plugins!"

	MsgAdminProtected = "You cannot use this command on the all-powerful %admin!\n" +
		"Overlord %admin has been notified of your futile attempt!"
	MsgAdminProtectedNotice = "%s has tried to use /%c on overlord %admin!"

	MsgAdminOnly = "Only the all-powerful %admin may use this command!\n" +
		"Overlord %admin has been notified of your futile attempt!"
	MsgAdminOnlyNotice = "%s has tried to use /%c on %gt"
)

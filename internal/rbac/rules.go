package rbac

// Simple default policy. Students join and submit; teachers author
// content, close exams, and grade.
var RolePermissions = map[string][]string{
	"student": {
		"exam:join",
		"exam:submit",
		"results:view-own",
	},
	"teacher": {
		"question:create",
		"question:delete",
		"question:list",
		"exam:create",
		"exam:end",
		"exam:list-own",
		"results:view-all",
		"results:grade",
	},
}

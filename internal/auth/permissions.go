package auth

import "interventoria/models"

// Permission — право на действие с отчетами
type Permission string

const (
	PermGenerateReports Permission = "reports.generate"
	PermViewReports     Permission = "reports.view"
	PermExportReports   Permission = "reports.export"
	PermViewDashboard   Permission = "dashboard.view"
)

// PermissionFunc отвечает, разрешено ли роли действие
type PermissionFunc func(role models.Role, perm Permission) bool

var rolePermissions = map[models.Role]map[Permission]bool{
	models.RoleResident: {PermViewReports: true, PermGenerateReports: true, PermViewDashboard: true},
	models.RoleClient:   {PermViewReports: true, PermViewDashboard: true},
}

// DefaultPermissions — матрица ролей: admin и supervisor могут все
func DefaultPermissions(role models.Role, perm Permission) bool {
	switch role {
	case models.RoleAdmin, models.RoleSupervisor:
		return true
	}
	return rolePermissions[role][perm]
}

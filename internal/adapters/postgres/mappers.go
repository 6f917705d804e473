package postgres

import (
	"encoding/json"

	"github.com/crewhub/membership-service/internal/domain"
)

func toDomainUser(m userModel) domain.User {
	return domain.User{
		UserID: m.UserID, Username: m.Username, Role: m.Role, CreatedAt: m.CreatedAt,
	}
}

func toDomainTask(m taskModel) domain.Task {
	return domain.Task{
		TaskID: m.TaskID, Title: m.Title, Assignee: m.Assignee, Status: m.Status,
		EndsOn: m.EndsOn, CreatedBy: m.CreatedBy, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toDomainExtensionRequest(m extensionRequestModel) domain.ExtensionRequest {
	return domain.ExtensionRequest{
		RequestID: m.RequestID, TaskID: m.TaskID, Assignee: m.Assignee, Title: m.Title,
		OldEndsOn: m.OldEndsOn, NewEndsOn: m.NewEndsOn, Reason: m.Reason,
		Status: domain.ExtensionStatus(m.Status), RequestNumber: m.RequestNumber,
		CreatedBy: m.CreatedBy, ResolvedBy: m.ResolvedBy, ResolvedAt: m.ResolvedAt,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toDomainUserStatus(m userStatusModel) domain.UserStatus {
	return domain.UserStatus{
		UserID: m.UserID, Status: domain.UserStatusKind(m.Status), State: domain.UserStatusState(m.State),
		Message: m.Message, AppliedOn: m.AppliedOn, EndsOn: m.EndsOn, UpdatedAt: m.UpdatedAt,
	}
}

func toDomainAuditEntry(m auditLogModel) domain.AuditEntry {
	entry := domain.AuditEntry{
		LogID: m.LogID, Type: m.Type, Body: json.RawMessage(m.Body), CreatedAt: m.CreatedAt,
	}
	_ = json.Unmarshal([]byte(m.Meta), &entry.Meta)
	return entry
}

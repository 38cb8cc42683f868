package service

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"

	"clientbooks/internal/identity"
	"clientbooks/internal/records/models"
	dErrors "clientbooks/pkg/domain-errors"
)

// UploadAttachment stores the file and appends an attachment entry to the
// record. A failed record write rolls the blob back so no orphan survives.
func (s *Service) UploadAttachment(ctx context.Context, principal identity.Principal, recordID uuid.UUID, fileName, contentType string, data []byte) (*models.Attachment, error) {
	if s.files == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "object storage is not configured")
	}
	if fileName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "file name is required")
	}
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no file content uploaded")
	}

	record, err := s.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("client-documents/%s/%s%s", recordID, uuid.NewString(), path.Ext(fileName))
	url, err := s.files.Put(ctx, key, data, contentType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store file")
	}

	now := s.now()
	attachment := models.Attachment{
		FileName:   fileName,
		StorageURL: url,
		UploadedBy: principal.ID,
		UploadedAt: now,
	}
	record.Attachments = append(record.Attachments, attachment)
	record.Recompute(now)

	if err := s.records.Update(ctx, record); err != nil {
		if delErr := s.files.Delete(ctx, key); delErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to clean up orphaned attachment", "key", key, "error", delErr)
		}
		return nil, translateStoreError(err, "failed to record attachment")
	}

	s.logAudit(ctx, "attachment_uploaded", "record_id", recordID.String(), "file_name", fileName, "user_id", principal.ID)
	return &attachment, nil
}

// RemoveAttachment deletes the attachment entry and its stored object.
func (s *Service) RemoveAttachment(ctx context.Context, recordID uuid.UUID, storageURL string) error {
	if s.files == nil {
		return dErrors.New(dErrors.CodeInternal, "object storage is not configured")
	}

	record, err := s.Get(ctx, recordID)
	if err != nil {
		return err
	}

	if !record.RemoveAttachment(storageURL) {
		return dErrors.New(dErrors.CodeNotFound, "file url is not recorded on this record")
	}

	key, ok := s.files.KeyFromURL(storageURL)
	if !ok {
		return dErrors.New(dErrors.CodeValidation, "file url does not belong to this storage")
	}
	if err := s.files.Delete(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete stored file")
	}

	record.Recompute(s.now())
	if err := s.records.Update(ctx, record); err != nil {
		return translateStoreError(err, "failed to update record")
	}

	s.logAudit(ctx, "attachment_removed", "record_id", recordID.String())
	return nil
}

// SignAttachment mints a time-limited download link. It refuses URLs that
// are not on the record's attachment list, so a caller can never use a
// record id it may read to reach arbitrary storage keys.
func (s *Service) SignAttachment(ctx context.Context, recordID uuid.UUID, storageURL string) (string, error) {
	if s.files == nil {
		return "", dErrors.New(dErrors.CodeInternal, "object storage is not configured")
	}

	record, err := s.Get(ctx, recordID)
	if err != nil {
		return "", err
	}

	if !record.HasAttachment(storageURL) {
		return "", dErrors.New(dErrors.CodeForbidden, "file url is not recorded on this record")
	}

	key, ok := s.files.KeyFromURL(storageURL)
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "file url does not belong to this storage")
	}

	signed, err := s.files.SignedGet(ctx, key, s.signedTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign download url")
	}
	return signed, nil
}

// releaseAttachments best-effort deletes every stored object owned by the
// record. Called after the row is gone; a failure only orphans a blob.
func (s *Service) releaseAttachments(ctx context.Context, record *models.Record) {
	if s.files == nil {
		return
	}
	for _, attachment := range record.Attachments {
		key, ok := s.files.KeyFromURL(attachment.StorageURL)
		if !ok {
			continue
		}
		if err := s.files.Delete(ctx, key); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to release attachment storage",
				"record_id", record.ID.String(),
				"key", key,
				"error", err,
			)
		}
	}
}

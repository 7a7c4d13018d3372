package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/ArdaAlp/Binary-Power/internal/storage"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

const auditCollection = "ledger_audit_log"

type AuditRepository struct {
	collection *mongo.Collection
	lg         *logging.ZapLogger
	now        func() time.Time
}

func NewAuditRepository(m *storage.Mongo, lg *logging.ZapLogger) *AuditRepository {
	return &AuditRepository{
		collection: m.DB.Collection(auditCollection),
		lg:         lg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Save inserts the record once. A record already stored under the same event uuid is a
// redelivery and is not an error.
func (rep *AuditRepository) Save(ctx context.Context, in *models.AuditRecord) error {
	in.RecordedAt = rep.now()

	if _, err := rep.collection.InsertOne(ctx, in); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			rep.lg.DebugCtx(ctx, "audit record already stored", zap.String("event_uuid", in.EventUUID))
			return nil
		}

		return fmt.Errorf("audit_repository: insert audit record error %w", err)
	}

	return nil
}

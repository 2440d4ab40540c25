package index

import (
	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain/record"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
)

func toStored(rec record.Record) db.VectorRecord {
	return db.VectorRecord{
		ID:       rec.ID(),
		Vector:   rec.Vector(),
		Document: rec.Document(),
		Tags:     rec.Tags(),
		Numerics: rec.Numerics(),
	}
}

func fromStored(stored db.VectorRecord) record.Record {
	return record.Reconstruct(stored.ID, stored.Document, stored.Tags, stored.Numerics, stored.Vector)
}

func toHit(m db.VectorMatch) result.Hit {
	return result.NewHit(m.ID, m.Score, m.Document, m.Tags, m.Numerics)
}

package store

import (
	"database/sql"
	"time"

	"github.com/inkdesk/inkdesk/model"
)

// AddSyncJob records the start of a pull, push or import run.
func (s *Store) AddSyncJob(job *model.SyncJob) (*model.SyncJob, error) {
	if job.StartedTs == 0 {
		job.StartedTs = time.Now().Unix()
	}
	stmt := `
        INSERT INTO sync_jobs (
            uuid, kind, status, detail, started_ts, finished_ts
        ) VALUES (?,?,?,?,?,0)
        RETURNING id`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.QueryRow(stmt, job.UUID, job.Kind, job.Status, job.Detail, job.StartedTs).Scan(&job.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return job, nil
}

// FinishSyncJob marks a run done or failed and stores its summary detail.
func (s *Store) FinishSyncJob(jobID int, status, detail string) error {
	stmt := `UPDATE sync_jobs SET status = ?, detail = ?, finished_ts = ? WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	_, err := s.db.Exec(stmt, status, detail, time.Now().Unix(), jobID)
	return err
}

func (s *Store) ListSyncJobs(limit int) ([]*model.SyncJob, error) {
	query := `
        SELECT
            id, uuid, kind, status, detail, started_ts, finished_ts
        FROM sync_jobs
        ORDER BY started_ts DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.SyncJob, 0)
	for rows.Next() {
		var job model.SyncJob
		var detail sql.NullString
		if err := rows.Scan(
			&job.ID,
			&job.UUID,
			&job.Kind,
			&job.Status,
			&detail,
			&job.StartedTs,
			&job.FinishedTs,
		); err != nil {
			return nil, err
		}
		job.Detail = detail.String
		list = append(list, &job)
	}
	return list, rows.Err()
}

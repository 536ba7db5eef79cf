package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"grantcore/internal/infra/persistence/memory"
)

// schemaDDL declares the relational layout alongside the snapshot table. The
// UNIQUE constraints are the storage-level guarantee behind entity
// resolution: identical identity-key tuples can never occupy two rows.
// Foreign keys use SET NULL so removing an upstream record never blocks or
// cascades into a proposal delete.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS state (
	bucket TEXT PRIMARY KEY,
	payload JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS programs (
	program_id TEXT PRIMARY KEY,
	program_name TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'unknown',
	office_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS proponents (
	proponent_id TEXT PRIMARY KEY,
	proponent_name TEXT NOT NULL,
	sex TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (proponent_name, sex)
);
CREATE TABLE IF NOT EXISTS collaborators (
	collaborator_id TEXT PRIMARY KEY,
	collaborator_name TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS beneficiaries (
	beneficiary_id TEXT PRIMARY KEY,
	beneficiary TEXT NOT NULL,
	beneficiary_leader TEXT NOT NULL,
	beneficiary_leader_sex TEXT NOT NULL,
	male_beneficiaries INTEGER NOT NULL DEFAULT 0,
	female_beneficiaries INTEGER NOT NULL DEFAULT 0,
	total_beneficiaries INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (beneficiary, beneficiary_leader, beneficiary_leader_sex, male_beneficiaries, female_beneficiaries),
	CHECK (total_beneficiaries = male_beneficiaries + female_beneficiaries)
);
CREATE TABLE IF NOT EXISTS proposals (
	proposal_id TEXT PRIMARY KEY,
	user_id TEXT REFERENCES users(user_id) ON DELETE SET NULL,
	program_id TEXT REFERENCES programs(program_id) ON DELETE SET NULL,
	proponent_id TEXT REFERENCES proponents(proponent_id) ON DELETE SET NULL,
	collaborator_id TEXT REFERENCES collaborators(collaborator_id) ON DELETE SET NULL,
	beneficiary_id TEXT REFERENCES beneficiaries(beneficiary_id) ON DELETE SET NULL,
	project_type TEXT,
	title TEXT NOT NULL,
	details TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Pending',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// mirrorRelations keeps the relational tables in lockstep with the snapshot
// so SQL consumers (reports, typeahead indexes) read real rows, not JSON.
// Inserts upsert by primary key; proposals removed from state are deleted.
func mirrorRelations(ctx context.Context, tx *sql.Tx, snapshot memory.Snapshot) error {
	for _, p := range snapshot.Programs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO programs(program_id,program_name,created_at,updated_at)
			VALUES($1,$2,$3,$4)
			ON CONFLICT(program_id) DO UPDATE SET program_name=EXCLUDED.program_name, updated_at=EXCLUDED.updated_at`,
			p.ID, p.Name, p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("mirror program %s: %w", p.ID, err)
		}
	}
	for _, u := range snapshot.Users {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users(user_id,first_name,last_name,role,office_id,created_at,updated_at)
			VALUES($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT(user_id) DO UPDATE SET first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name,
				role=EXCLUDED.role, office_id=EXCLUDED.office_id, updated_at=EXCLUDED.updated_at`,
			u.ID, u.FirstName, u.LastName, string(u.Role), u.OfficeID, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("mirror user %s: %w", u.ID, err)
		}
	}
	for _, p := range snapshot.Proponents {
		if _, err := tx.ExecContext(ctx, `INSERT INTO proponents(proponent_id,proponent_name,sex,created_at,updated_at)
			VALUES($1,$2,$3,$4,$5)
			ON CONFLICT(proponent_name,sex) DO UPDATE SET updated_at=EXCLUDED.updated_at`,
			p.ID, p.Name, string(p.Sex), p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("mirror proponent %s: %w", p.ID, err)
		}
	}
	for _, c := range snapshot.Collaborators {
		if _, err := tx.ExecContext(ctx, `INSERT INTO collaborators(collaborator_id,collaborator_name,created_at,updated_at)
			VALUES($1,$2,$3,$4)
			ON CONFLICT(collaborator_name) DO UPDATE SET updated_at=EXCLUDED.updated_at`,
			c.ID, c.Name, c.CreatedAt, c.UpdatedAt); err != nil {
			return fmt.Errorf("mirror collaborator %s: %w", c.ID, err)
		}
	}
	for _, b := range snapshot.Beneficiaries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO beneficiaries(beneficiary_id,beneficiary,beneficiary_leader,beneficiary_leader_sex,
				male_beneficiaries,female_beneficiaries,total_beneficiaries,created_at,updated_at)
			VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT(beneficiary,beneficiary_leader,beneficiary_leader_sex,male_beneficiaries,female_beneficiaries)
				DO UPDATE SET updated_at=EXCLUDED.updated_at`,
			b.ID, b.Group, b.Leader, string(b.LeaderSex), b.Male, b.Female, b.Total, b.CreatedAt, b.UpdatedAt); err != nil {
			return fmt.Errorf("mirror beneficiary %s: %w", b.ID, err)
		}
	}
	ids := make([]any, 0, len(snapshot.Proposals))
	for _, p := range snapshot.Proposals {
		if _, err := tx.ExecContext(ctx, `INSERT INTO proposals(proposal_id,user_id,program_id,proponent_id,collaborator_id,
				beneficiary_id,project_type,title,details,status,created_at,updated_at)
			VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT(proposal_id) DO UPDATE SET user_id=EXCLUDED.user_id, program_id=EXCLUDED.program_id,
				proponent_id=EXCLUDED.proponent_id, collaborator_id=EXCLUDED.collaborator_id,
				beneficiary_id=EXCLUDED.beneficiary_id, project_type=EXCLUDED.project_type, title=EXCLUDED.title,
				details=EXCLUDED.details, status=EXCLUDED.status, updated_at=EXCLUDED.updated_at`,
			p.ID, nullable(p.UserID), nullable(p.ProgramID), nullable(p.ProponentID), p.CollaboratorID,
			nullable(p.BeneficiaryID), p.ProjectType, p.Title, p.Details, string(p.Status), p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("mirror proposal %s: %w", p.ID, err)
		}
		ids = append(ids, p.ID)
	}
	if err := pruneProposals(ctx, tx, ids); err != nil {
		return err
	}
	return nil
}

func pruneProposals(ctx context.Context, tx *sql.Tx, keep []any) error {
	if len(keep) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM proposals`); err != nil {
			return fmt.Errorf("prune proposals: %w", err)
		}
		return nil
	}
	placeholders := ""
	for i := range keep {
		if i > 0 {
			placeholders += ","
		}
		placeholders += fmt.Sprintf("$%d", i+1)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM proposals WHERE proposal_id NOT IN (`+placeholders+`)`, keep...); err != nil {
		return fmt.Errorf("prune proposals: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

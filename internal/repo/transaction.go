package repo

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"keel/internal/journal"
)

type TxState string

const (
	TxActive     TxState = "ACTIVE"
	TxCommitted  TxState = "COMMITTED"
	TxRolledBack TxState = "ROLLED_BACK"
)

// Transaction is the handle for one in-flight batch of mutations. The batch
// callback may set the commit message; the hash and result are stamped by
// the repository on a successful commit.
type Transaction struct {
	ID      string
	Message string
	Result  any
	Commit  string

	repo  *Repository
	state TxState
}

func (t *Transaction) SetMessage(message string) {
	t.Message = message
}

func (t *Transaction) State() TxState {
	return t.state
}

// Repository returns the repository the transaction runs against.
func (t *Transaction) Repository() *Repository {
	return t.repo
}

// TxFunc is the caller-supplied batch logic. It mutates the working tree
// directly (not necessarily through the repository's methods) and returns a
// result value to be stamped onto the transaction.
type TxFunc func(tx *Transaction) (any, error)

// Transaction runs fn as an all-or-nothing batch. On normal return every
// outstanding change is staged and committed as one revision and the stamped
// transaction is returned. On any failure the working tree, staging area and
// untracked files are reset to the last committed state and the original
// error is returned.
func (r *Repository) Transaction(fn TxFunc) (*Transaction, error) {
	tx := &Transaction{
		ID:    uuid.New().String(),
		repo:  r,
		state: TxActive,
	}

	if err := r.applyTransaction(tx, fn); err != nil {
		tx.state = TxRolledBack
		r.rollback(tx, err)
		return nil, err
	}

	tx.state = TxCommitted
	r.record(journal.Entry{
		ID:       tx.ID,
		Op:       "transaction",
		Revision: tx.Commit,
		Message:  tx.Message,
	})
	return tx, nil
}

func (r *Repository) applyTransaction(tx *Transaction, fn TxFunc) error {
	result, err := fn(tx)
	if err != nil {
		return err
	}
	tx.Result = result

	if tx.Message == "" {
		tx.Message = "transaction " + tx.ID
	}

	if err := r.Add(nil, false); err != nil {
		return err
	}
	if err := r.Commit(tx.Message, nil); err != nil {
		return err
	}

	hash, err := r.CurrentCommit()
	if err != nil {
		return err
	}
	tx.Commit = hash
	return nil
}

// rollback discards staged changes, working-tree modifications and untracked
// files. Best effort: a repository that cannot be reset is logged, the
// original batch error still wins.
func (r *Repository) rollback(tx *Transaction, cause error) {
	if _, err := r.run("resetting to last commit", "reset", "--hard", "HEAD"); err != nil {
		r.logger.Warn("rollback reset failed", zap.Error(err))
	}
	if _, err := r.run("removing untracked files", "clean", "-fd"); err != nil {
		r.logger.Warn("rollback clean failed", zap.Error(err))
	}

	r.logger.Info("transaction rolled back",
		zap.String("id", tx.ID),
		zap.Error(cause))
	r.record(journal.Entry{
		ID:      tx.ID,
		Op:      "rollback",
		Message: cause.Error(),
	})
}

package ledger

import (
	"context"
	"errors"
)

// Rate 提交评分
//
// 同一用户重复提交时覆盖原评分，不会新增一行；
// 平均分和评分数在同一个事务里按全部评分行重新计算，保证和评分表一致。
//
// 同一用户的两次首次评分并发时，两边都可能读不到已有行；
// 后插入的一方撞上唯一约束后改为更新。死锁等存储错误仍按 ErrStorage 返回。
func (l *Ledger) Rate(ctx context.Context, r *Rating) (*RatingStats, error) {
	if r.Value < 1 || r.Value > 5 {
		return nil, ErrInvalidRating
	}
	if !r.Kind.Valid() {
		return nil, ErrNotFound
	}

	var stats *RatingStats
	err := l.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.FindItem(ctx, r.Kind, r.ItemID); err != nil {
			return err
		}

		existing, err := tx.FindRating(ctx, r.Kind, r.ItemID, r.UserID)
		if err != nil {
			return err
		}

		if existing != nil {
			err = tx.UpdateRating(ctx, r)
		} else {
			err = tx.InsertRating(ctx, r)
			if errors.Is(err, ErrRatingExists) {
				err = tx.UpdateRating(ctx, r)
			}
		}
		if err != nil {
			return err
		}

		stats, err = recompute(ctx, tx, r.Kind, r.ItemID)
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}

	return stats, nil
}

// RefreshRating 按评分表重算商品的冗余评分字段，供对账任务使用
func (l *Ledger) RefreshRating(ctx context.Context, kind ItemKind, itemID int64) (*RatingStats, error) {
	var stats *RatingStats
	err := l.store.WithinTx(ctx, func(tx Tx) error {
		var err error
		stats, err = recompute(ctx, tx, kind, itemID)
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}
	return stats, nil
}

func recompute(ctx context.Context, tx Tx, kind ItemKind, itemID int64) (*RatingStats, error) {
	stats, err := tx.RatingStats(ctx, kind, itemID)
	if err != nil {
		return nil, err
	}
	stats.Average = stats.Average.Round(2)

	if err := tx.SetItemRating(ctx, kind, itemID, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

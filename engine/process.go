package engine

import (
	"context"
	"fmt"

	"github.com/wadelive/wade/play"
)

// PlayResult records what happened to one play, for logging and tests.
type PlayResult struct {
	Identity play.Identity
	// dropped before identity resolution; not enough fields to identify
	Unusable  bool
	Duplicate bool
	Decision  Decision
	Escalate  bool
	Kind      MessageKind
	// eligible (or escalating) but denied by the rate limiter
	RateLimited bool
	Published   bool
	Text        string
	Err         error
}

// processPlay runs one record through ledger, classifier, drought tracker and rate limiter,
// then composes and publishes on admission. Compose and publish failures are returned in the
// result, never retried; the play stays in the ledger either way.
func (d *Driver) processPlay(ctx context.Context, sess *Session, rec *play.Record) PlayResult {
	var res PlayResult
	if !rec.Usable() {
		res.Unusable = true
		playsSkipped.WithLabelValues("unusable").Inc()
		d.logger.Warn("dropping unusable play record", "event", sess.EventID)
		return res
	}

	res.Identity = play.ResolveIdentity(rec)
	if !sess.Ledger.Admit(res.Identity) {
		res.Duplicate = true
		playsSkipped.WithLabelValues("duplicate").Inc()
		return res
	}

	res.Decision = d.cfg.Classifier.Classify(rec)
	if rec.SequenceIndex != nil && rec.Actionable() && d.cfg.Classifier.SubjectSide(rec) {
		res.Escalate = sess.Drought.OnPlateAppearance(*rec.SequenceIndex)
	}
	playsProcessed.WithLabelValues(reasonLabel(res.Decision.Reason)).Inc()

	line := fmt.Sprintf("%s - Reason: %s", rec.String(), res.Decision.Reason)
	d.logActivity(line)
	d.logger.Info("play", "inning", rec.Inning(), "actor", rec.ActorName, "kind", string(rec.OutcomeKind),
		"id", res.Identity.String(), "synthetic", res.Identity.IsSynthetic(),
		"reason", res.Decision.Reason, "post", res.Decision.Post, "drought", sess.Drought.Count())

	var source string
	switch {
	case res.Decision.Post:
		res.Kind = MessageReaction
		source = rec.OutcomeText
	case res.Escalate:
		res.Kind = MessageEscalation
		source = escalationSource(d.cfg.SubjectName, sess.Drought.Count())
		d.logger.Info("drought threshold reached", "count", sess.Drought.Count(), "threshold", sess.Drought.Threshold())
	default:
		return res
	}
	// the drought is over whether or not the limiter lets a message out
	sess.Drought.Reset()

	if !sess.Limiter.TryAdmit(d.now()) {
		res.RateLimited = true
		d.rateLimited++
		postsRateLimited.WithLabelValues(string(res.Kind)).Inc()
		d.logger.Warn("rate limited, skipping post", "kind", res.Kind, "id", res.Identity.String(),
			"limit", sess.Limiter.Limit(), "window", sess.Limiter.Window())
		d.logActivity(fmt.Sprintf("rate limited %s for %s", res.Kind, rec.String()))
		return res
	}
	if sess.Limiter.Len() > sess.Limiter.Limit() {
		invariantViolations.Inc()
		d.logger.Error("rate window over limit after admission", "len", sess.Limiter.Len(), "limit", sess.Limiter.Limit())
	}

	text, err := d.compose(ctx, source)
	if err != nil {
		res.Err = err
		postsFailed.WithLabelValues("compose").Inc()
		d.logger.Error("failed to compose post", "err", err, "id", res.Identity.String())
		return res
	}
	res.Text = text

	d.logger.Info("publishing post", "kind", res.Kind, "text", text)
	if err := d.cfg.Publisher.Publish(ctx, text); err != nil {
		res.Err = fmt.Errorf("publishing post: %w", err)
		postsFailed.WithLabelValues("publish").Inc()
		d.logger.Error("failed to publish post", "err", err, "id", res.Identity.String())
		return res
	}

	res.Published = true
	postsPublished.WithLabelValues(string(res.Kind)).Inc()
	if res.Kind == MessageEscalation {
		d.escalationsMade++
	}
	d.postsMade++
	d.logActivity(fmt.Sprintf("posted %s: %s", res.Kind, text))
	return res
}

func (d *Driver) compose(ctx context.Context, source string) (string, error) {
	raw, err := d.cfg.Composer.Compose(ctx, source)
	if err != nil {
		return "", fmt.Errorf("composing post: %w", err)
	}
	return finishPost(raw, d.cfg.Tag, d.cfg.MaxPostLength)
}

// keeps metric label cardinality bounded; priority reasons include the outcome kind
func reasonLabel(reason string) string {
	if len(reason) > len(reasonPriority) && reason[:len(reasonPriority)] == reasonPriority {
		return "priority actor"
	}
	return reason
}

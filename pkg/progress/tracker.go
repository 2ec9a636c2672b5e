package progress

// Publisher is the producer side of a progress stream.
type Publisher interface {
	Publish(s Sample)
}

// Tracker turns per-stage progress into monotonic samples for an operation
// made of a fixed number of stages.
type Tracker struct {
	pub       Publisher
	stages    int
	completed int
	last      Sample
	started   bool
}

func NewTracker(pub Publisher, stages int) *Tracker {
	if stages < 1 {
		stages = 1
	}
	return &Tracker{
		pub:    pub,
		stages: stages,
	}
}

// Update reports the completion of the running stage.
func (t *Tracker) Update(sub float64) {
	sub = clamp(sub)
	if sub < t.last.SubStage {
		sub = t.last.SubStage
	}
	stage := (float64(t.completed) + sub) / float64(t.stages)
	if stage < t.last.Stage {
		stage = t.last.Stage
	}
	// Stage reaches 1 only through Finish.
	if stage >= 1 {
		stage = t.last.Stage
	}
	t.publish(Sample{Stage: stage, SubStage: sub})
}

// UpdateBytes reports the running stage as processed out of total.
func (t *Tracker) UpdateBytes(processed, total int64) {
	if total <= 0 {
		return
	}
	t.Update(float64(processed) / float64(total))
}

// Advance completes the running stage and starts the next one at zero.
func (t *Tracker) Advance() {
	if t.completed < t.stages {
		t.completed++
	}
	stage := float64(t.completed) / float64(t.stages)
	if stage >= 1 {
		stage = t.last.Stage
	}
	t.publish(Sample{Stage: stage, SubStage: 0})
}

// Finish publishes the terminal sample.
func (t *Tracker) Finish() {
	t.completed = t.stages
	t.publish(Sample{Stage: 1, SubStage: 1})
}

func (t *Tracker) Last() Sample {
	return t.last
}

func (t *Tracker) publish(s Sample) {
	if t.started && s == t.last {
		return
	}
	t.started = true
	t.last = s
	if t.pub != nil {
		t.pub.Publish(s)
	}
}

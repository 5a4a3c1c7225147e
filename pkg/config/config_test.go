package config

import "testing"

func TestConfig_Job(t *testing.T) {
	cfg := &Config{Jobs: []JobConfig{{Name: "a"}, {Name: "b", Schedule: "@daily"}}}

	job, ok := cfg.Job("b")
	if !ok {
		t.Fatal("expected job b")
	}
	job.Input = "changed"
	if cfg.Jobs[1].Input != "changed" {
		t.Error("expected Job to return a pointer into the config")
	}

	if _, ok := cfg.Job("c"); ok {
		t.Error("expected unknown job to be missing")
	}
}

func TestConfig_ScheduledJobs(t *testing.T) {
	cfg := &Config{Jobs: []JobConfig{
		{Name: "manual"},
		{Name: "nightly", Schedule: "0 3 * * *"},
		{Name: "hourly", Schedule: "@hourly"},
	}}

	jobs := cfg.ScheduledJobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 scheduled jobs, got %d", len(jobs))
	}
	if jobs[0].Name != "nightly" || jobs[1].Name != "hourly" {
		t.Errorf("expected scheduled jobs in config order, got %s, %s", jobs[0].Name, jobs[1].Name)
	}
}

func TestSQLiteConfig_WAL(t *testing.T) {
	off, on := false, true
	tests := []struct {
		name string
		wal  *bool
		want bool
	}{
		{"unset", nil, DefaultSQLiteWALMode},
		{"off", &off, false},
		{"on", &on, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (SQLiteConfig{WALMode: tt.wal}).WAL(); got != tt.want {
				t.Errorf("WAL() = %v, want %v", got, tt.want)
			}
		})
	}
}

package sqlinline

// QSweepLapsedPeriods rolls over every paid account whose billing period has
// lapsed. The sweep is a freshness optimization for direct table readers;
// the lazy reset in QAccountSummary and the increment path stays
// authoritative, so correctness never depends on the sweep running.
const QSweepLapsedPeriods = `--sql 116851e0-5cd9-4c34-930a-d05808621f48
update user_accounts u
set period_used = 0,
    period_reset_at = date_trunc('month', now()),
    updated_at = now()
where u.plan <> 'free'
  and u.period_reset_at < date_trunc('month', now());
`

package sqlinline

const QStatsSummary = `--sql 45e1bdad-092b-4fc8-9194-c70e59081469
select
    (select count(*) from user_accounts) as total_accounts,
    (select count(*) from user_accounts where plan = 'free') as free_accounts,
    (select count(*) from user_accounts where plan <> 'free') as paid_accounts,
    (select count(*) from usage_events) as events_recorded,
    (select coalesce(sum(delta), 0) from usage_events) as units_recorded,
    (select coalesce(sum(delta), 0) from usage_events where applied_at >= now() - interval '24 hours') as units_last_24h;
`

const QHealthCheck = `--sql da974df8-aef1-44a0-8bcd-ff86c6743820
select 1;
`

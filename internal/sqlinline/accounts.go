package sqlinline

const QProvisionAccount = `--sql 2fd4d565-e0d2-48cd-a045-805096b99282
with ins as (
    insert into user_accounts (id, plan, lifetime_used, period_used, period_reset_at, created_at, updated_at)
    values ($1::uuid, 'free', 0, 0, date_trunc('month', now()), now(), now())
    on conflict (id) do nothing
    returning id, plan, lifetime_used, period_used, period_reset_at, external_billing_ref, created_at, updated_at
)
select id, plan, lifetime_used, period_used, period_reset_at, external_billing_ref, created_at, updated_at, true as created
from ins
union all
select u.id, u.plan, u.lifetime_used, u.period_used, u.period_reset_at, u.external_billing_ref, u.created_at, u.updated_at, false as created
from user_accounts u
where u.id = $1::uuid and not exists (select 1 from ins);
`

const QSelectAccount = `--sql 8ff4788a-7fbb-41d7-bdb4-5a664ea1f815
select id, plan, lifetime_used, period_used, period_reset_at, external_billing_ref, created_at, updated_at
from user_accounts
where id = $1::uuid
limit 1;
`

// QAccountSummary rolls a lapsed billing period over as a side effect of the
// read. The rollover and the read are one statement, so a concurrent reader
// can never observe a reset applied twice.
const QAccountSummary = `--sql 60c6a21e-8c53-4207-a173-a9bcdb5fa676
with rolled as (
    update user_accounts u
    set period_used = 0,
        period_reset_at = date_trunc('month', now()),
        updated_at = now()
    where u.id = $1::uuid
      and u.plan <> 'free'
      and u.period_reset_at < date_trunc('month', now())
    returning id, plan, lifetime_used, period_used
)
select id, plan, lifetime_used, period_used from rolled
union all
select u.id, u.plan, u.lifetime_used, u.period_used
from user_accounts u
where u.id = $1::uuid and not exists (select 1 from rolled);
`

// QApplyPlanChange encodes the transition rules in one conditional update:
// only free -> paid starts a fresh period; every other move keeps the
// counters, which makes at-least-once webhook delivery a no-op on replay.
const QApplyPlanChange = `--sql aa7b57b3-cdd3-425b-a486-a5f2fe2fa370
update user_accounts u
set plan = $2::text,
    period_used = case when u.plan = 'free' and $2::text <> 'free' then 0 else u.period_used end,
    period_reset_at = case when u.plan = 'free' and $2::text <> 'free' then date_trunc('month', now()) else u.period_reset_at end,
    external_billing_ref = coalesce(nullif($3::text, ''), u.external_billing_ref),
    updated_at = now()
where u.id = $1::uuid
returning id, plan, lifetime_used, period_used, period_reset_at, external_billing_ref, created_at, updated_at;
`

const QApplyPlanChangeByBillingRef = `--sql 5b3c5e92-537d-424a-a88c-581de65c2d64
update user_accounts u
set plan = $2::text,
    period_used = case when u.plan = 'free' and $2::text <> 'free' then 0 else u.period_used end,
    period_reset_at = case when u.plan = 'free' and $2::text <> 'free' then date_trunc('month', now()) else u.period_reset_at end,
    updated_at = now()
where u.external_billing_ref = $1::text
returning id, plan, lifetime_used, period_used, period_reset_at, external_billing_ref, created_at, updated_at;
`

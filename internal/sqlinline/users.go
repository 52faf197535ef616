package sqlinline

const QSelectUserPlan = `--sql 3f6b7c1e-58a2-4d0b-9e61-7a2c4f1d8e03
select coalesce(plan, 'free')
from users
where id = $1::uuid
limit 1;
`

const QSelectUserPlanByEmail = `--sql b1e4a9d2-0c37-4f58-8a6e-95d3c2f7a410
select id, email, coalesce(plan, 'free')
from users
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateUserPlan = `--sql 8c2d5f90-6a1b-4e73-b4c8-1f0e9d7a3b25
update users
set plan = $2::text,
    updated_at = now()
where id = $1::uuid
returning id, email, plan;
`

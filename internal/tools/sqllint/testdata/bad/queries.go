package bad

const QMissing = `select 1;`

const QFirst = `--sql 0b0c7e2a-1f3d-4c59-8a6b-2e4f9d1c3a57
select 2;`

const QDuplicate = `--sql 0b0c7e2a-1f3d-4c59-8a6b-2e4f9d1c3a57
update users set plan = 'free';`

const NotSQL = "selected items"

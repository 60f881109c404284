package sqlinline

// QSelectIntegrationToken returns the non-blank token stored for a provider.
const QSelectIntegrationToken = `--sql acb36be6-902a-4ead-b5f1-0cf16fff396d
select token
from integration_tokens
where provider = $1::text
  and btrim(token) <> ''
limit 1;
`

// QUpsertIntegrationToken stores or rotates the token of a provider.
const QUpsertIntegrationToken = `--sql 2aee158b-3070-4e15-b1a0-dd68f90c3328
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now();
`

// QEnsureIntegrationTokens creates the token table when it does not exist yet.
const QEnsureIntegrationTokens = `--sql a2987b78-0ff8-4211-ba27-e62ace89cb23
create table if not exists integration_tokens (
    id uuid primary key default gen_random_uuid(),
    provider text not null unique,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`
